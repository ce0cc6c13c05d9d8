package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/anuvad/internal/pipeline"
	"github.com/mgpai22/anuvad/internal/subtitle"
	"github.com/mgpai22/anuvad/internal/video"
)

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		output string
		target string
		want   outputSet
	}{
		{
			name:   "derived from input",
			input:  "/tmp/movie.srt",
			target: "id",
			want: outputSet{
				Output:  "/tmp/movie.id.srt",
				Partial: "/tmp/movie.id.partial.srt",
				Pairs:   "/tmp/movie.id.pairs.csv",
			},
		},
		{
			name:   "explicit output",
			input:  "movie.ass",
			output: "out/translated.ass",
			target: "ja",
			want: outputSet{
				Output:  "out/translated.ass",
				Partial: "out/translated.partial.ass",
				Pairs:   "out/translated.pairs.csv",
			},
		},
		{
			name:   "converted output",
			input:  "movie.srt",
			output: "movie.id.vtt",
			target: "id",
			want: outputSet{
				Output:  "movie.id.vtt",
				Partial: "movie.id.partial.srt",
				Pairs:   "movie.id.pairs.csv",
			},
		},
		{
			name:   "language name with spaces",
			input:  "ep01.en.vtt",
			target: "Brazilian  Portuguese",
			want: outputSet{
				Output:  "ep01.en.Brazilian-Portuguese.vtt",
				Partial: "ep01.en.Brazilian-Portuguese.partial.vtt",
				Pairs:   "ep01.en.Brazilian-Portuguese.pairs.csv",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.input, tt.output, tt.target)
			if got != tt.want {
				t.Errorf("outputPaths() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractOutputPath(t *testing.T) {
	tests := []struct {
		stream video.Stream
		format subtitle.Format
		want   string
	}{
		{video.Stream{Position: 0, Language: "eng"}, subtitle.FormatSRT, "/v/movie.eng.srt"},
		{video.Stream{Position: 2}, subtitle.FormatASS, "/v/movie.s2.ass"},
		{video.Stream{Position: 1, Language: "und"}, subtitle.FormatVTT, "/v/movie.s1.vtt"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := extractOutputPath("/v/movie.mkv", tt.stream, tt.format)
			if got != tt.want {
				t.Errorf("extractOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProgressLine(t *testing.T) {
	tests := []struct {
		name string
		p    pipeline.Progress
		want string
	}{
		{
			name: "translated",
			p:    pipeline.Progress{Index: 12, Total: 40, ETA: 84 * time.Second},
			want: "12/40 30% ETA 1m24s",
		},
		{
			name: "reused",
			p:    pipeline.Progress{Index: 3, Total: 4, Reused: true, ETA: 1500 * time.Millisecond},
			want: "3/4 75% ETA 2s [resume]",
		},
		{
			name: "degraded last block",
			p:    pipeline.Progress{Index: 4, Total: 4, Failed: true},
			want: "4/4 100% ETA 0s [kept original]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := progressLine(tt.p); got != tt.want {
				t.Errorf("progressLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPercentEmpty(t *testing.T) {
	if got := percent(0, 0); got != 100 {
		t.Errorf("percent(0, 0) = %v, want 100", got)
	}
}

func TestLicenseCommand(t *testing.T) {
	var out strings.Builder
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"license"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("license failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "MIT License") {
		t.Errorf("unexpected license output: %q", out.String())
	}
}
