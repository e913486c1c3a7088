package cmd

import (
	"testing"

	"github.com/spf13/pflag"
)

func newSearchFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("search", pflag.ContinueOnError)
	fs.Bool("stream", true, "")
	fs.Bool("no-stream", false, "")
	return fs
}

func TestStreamOverride(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    *bool
		wantErr bool
	}{
		{"none", nil, nil, false},
		{"stream", []string{"--stream"}, boolPtr(true), false},
		{"stream false", []string{"--stream=false"}, boolPtr(false), false},
		{"no-stream", []string{"--no-stream"}, boolPtr(false), false},
		{"agreeing", []string{"--stream=false", "--no-stream"}, boolPtr(false), false},
		{"conflicting", []string{"--stream", "--no-stream"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newSearchFlags()
			if err := fs.Parse(tt.args); err != nil {
				t.Fatal(err)
			}
			got, err := streamOverride(fs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("expected no override, got %v", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("expected %v, got %v", *tt.want, got)
			}
		})
	}
}

func boolPtr(b bool) *bool { return &b }
