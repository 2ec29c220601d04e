package ytdlp

import "testing"

func TestParseSearch(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    int
		wantURL string
	}{
		{
			name:    "two entries",
			data:    "{\"title\":\"A\",\"webpage_url\":\"https://youtube.com/watch?v=a\"}\n{\"title\":\"B\",\"webpage_url\":\"https://youtube.com/watch?v=b\"}\n",
			want:    2,
			wantURL: "https://youtube.com/watch?v=a",
		},
		{
			name:    "id only",
			data:    "{\"title\":\"A\",\"id\":\"abc123\"}\n",
			want:    1,
			wantURL: "https://www.youtube.com/watch?v=abc123",
		},
		{
			name: "blank lines",
			data: "\n\n{\"title\":\"A\",\"webpage_url\":\"u\"}\n\n",
			want: 1,
		},
		{
			name: "empty",
			data: "",
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			videos, err := parseSearch([]byte(tt.data))
			if err != nil {
				t.Fatalf("parseSearch() err = %v; want nil", err)
			}
			if len(videos) != tt.want {
				t.Fatalf("parseSearch() returned %d videos; want %d", len(videos), tt.want)
			}
			if tt.wantURL != "" && videos[0].URL != tt.wantURL {
				t.Fatalf("parseSearch() url = %q; want %q", videos[0].URL, tt.wantURL)
			}
		})
	}
}

func TestParseSearchInvalid(t *testing.T) {
	if _, err := parseSearch([]byte("not json\n")); err == nil {
		t.Fatal("parseSearch() err = nil; want error")
	}
}
