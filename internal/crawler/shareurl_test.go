package crawler

import (
	"testing"

	"github.com/nao1215/davsnap/internal/model"
)

func TestBuildFileURL(t *testing.T) {
	t.Parallel()

	share, err := model.NewShare("https://drive.example.ch", "AbCdEf123456789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	base := "https://drive.example.ch/index.php/s/AbCdEf123456789/"

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "nested file",
			path: "A/B/file.pdf",
			want: base + "download?path=%2FA%2FB&files=file.pdf",
		},
		{
			name: "top-level file",
			path: "file.pdf",
			want: base + "download?path=%2F&files=file.pdf",
		},
		{
			name: "names with spaces",
			path: "My Dir/my file.pdf",
			want: base + "download?path=%2FMy+Dir&files=my+file.pdf",
		},
		{
			name: "empty path",
			path: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := BuildFileURL(share, tt.path); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
