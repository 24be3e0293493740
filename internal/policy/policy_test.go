package policy

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/viper"
)

func TestFromViperDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	p := FromViper()
	if !reflect.DeepEqual(p.IncludePatterns, DefaultInclude()) {
		t.Errorf("include = %v", p.IncludePatterns)
	}
	if !reflect.DeepEqual(p.ExcludePatterns, DefaultExclude()) {
		t.Errorf("exclude = %v", p.ExcludePatterns)
	}
	if !reflect.DeepEqual(p.ExplicitFiles, DefaultExplicitFiles()) {
		t.Errorf("explicit = %v", p.ExplicitFiles)
	}
}

func TestFromViperOverrides(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("patterns.include", []string{"*.custom"})
	viper.Set("explicit.files", []string{})

	p := FromViper()
	if !reflect.DeepEqual(p.IncludePatterns, []string{"*.custom"}) {
		t.Errorf("include = %v", p.IncludePatterns)
	}
	// Configuring an empty list disables the explicit files entirely.
	if len(p.ExplicitFiles) != 0 {
		t.Errorf("explicit = %v", p.ExplicitFiles)
	}
	// Untouched keys keep their defaults.
	if !reflect.DeepEqual(p.ExcludePatterns, DefaultExclude()) {
		t.Errorf("exclude = %v", p.ExcludePatterns)
	}
}

func TestExpandUser(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/chains", filepath.Join(home, "chains")},
		{"/abs/path", "/abs/path"},
		{"relative/path", "relative/path"},
		{"~user/other", "~user/other"},
	}

	for _, tt := range tests {
		got, err := ExpandUser(tt.in)
		if err != nil {
			t.Errorf("ExpandUser(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExpandUser(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
