package webdav

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"
)

// Multistatus is the root element of a 207 Multi-Status response body.
// Namespaces in play are DAV: and the vendor extension namespace
// (http://nextcloud.org/ns); only DAV: properties are requested.
type Multistatus struct {
	XMLName   xml.Name   `xml:"DAV: multistatus"`
	Responses []Response `xml:"response"`
}

// Response is one status block: the href of a resource plus one propstat
// per status class (found properties under 200, missing ones under 404).
type Response struct {
	Href      string     `xml:"href"`
	Propstats []Propstat `xml:"propstat"`
}

// Propstat groups properties that share an HTTP status.
type Propstat struct {
	Status string `xml:"status"`
	Prop   *Prop  `xml:"prop"`
}

// Prop holds the four properties the crawler requests. Values are kept
// as raw strings; absence and non-numeric sizes are resolved by the
// response parser, not here.
type Prop struct {
	ResourceType  ResourceType `xml:"resourcetype"`
	ContentLength string       `xml:"getcontentlength"`
	LastModified  string       `xml:"getlastmodified"`
	ContentType   string       `xml:"getcontenttype"`
}

// ResourceType distinguishes collections from plain resources.
// The element is present and empty for files; a nested <collection/>
// marks a directory.
type ResourceType struct {
	Collection *struct{} `xml:"collection"`
}

// IsCollection reports whether the resource type carries the collection
// marker.
func (p *Prop) IsCollection() bool {
	return p.ResourceType.Collection != nil
}

// FoundProp returns the entry's property set, preferring the propstat
// with a 200 status (servers report missing properties under a separate
// 404 propstat with empty values). Nil when the entry has no usable
// prop block at all; such entries are skipped by the caller.
func (r *Response) FoundProp() *Prop {
	for i := range r.Propstats {
		ps := &r.Propstats[i]
		if ps.Prop != nil && strings.Contains(ps.Status, "200") {
			return ps.Prop
		}
	}
	for i := range r.Propstats {
		if r.Propstats[i].Prop != nil {
			return r.Propstats[i].Prop
		}
	}
	return nil
}

// ParseMultistatus decodes a multi-status XML body.
// The decoder is charset-aware because some servers still emit
// ISO-8859-1 bodies behind an honest encoding declaration.
func ParseMultistatus(body []byte) (*Multistatus, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	decoder.CharsetReader = charset.NewReaderLabel

	var ms Multistatus
	if err := decoder.Decode(&ms); err != nil {
		return nil, fmt.Errorf("failed to parse multi-status response: %w", err)
	}
	return &ms, nil
}
