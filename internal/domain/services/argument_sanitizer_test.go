package services

import (
	"reflect"
	"testing"

	"github.com/ochairo/reachstrap/internal/domain/entities"
)

func TestSanitizeArguments(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		rule       entities.SanitizationRule
		want       []string
		wantToggle int
	}{
		{
			name: "drops sensitive pair",
			args: []string{"--savedir", "/tmp/x", "--foo", "bar"},
			rule: entities.SanitizationRule{"savedir": false},
			want: []string{"--foo", "bar"},
		},
		{
			name:       "debug pair toggles verbosity",
			args:       []string{"--debug", "true"},
			rule:       entities.SanitizationRule{"debug": true},
			want:       []string{},
			wantToggle: 1,
		},
		{
			name: "flag match ignores case",
			args: []string{"--SaveDir", "/home/me", "--gameDir", "."},
			rule: entities.DefaultSanitizationRule,
			want: []string{"--gameDir", "."},
		},
		{
			name:       "trailing flag without value is kept",
			args:       []string{"--fullscreen", "--debug"},
			rule:       entities.DefaultSanitizationRule,
			want:       []string{"--fullscreen", "--debug"},
			wantToggle: 0,
		},
		{
			name: "single dash is not a flag",
			args: []string{"-savedir", "/tmp/x"},
			rule: entities.DefaultSanitizationRule,
			want: []string{"-savedir", "/tmp/x"},
		},
		{
			name:       "every occurrence toggles",
			args:       []string{"--debug", "1", "--localclient", "x", "--debug", "2", "tail"},
			rule:       entities.DefaultSanitizationRule,
			want:       []string{"tail"},
			wantToggle: 2,
		},
		{
			name:       "toggle needs exact case",
			args:       []string{"--DEBUG", "1", "--Debug", "2", "--debug", "3"},
			rule:       entities.DefaultSanitizationRule,
			want:       []string{},
			wantToggle: 1,
		},
		{
			name: "empty input",
			args: nil,
			rule: entities.DefaultSanitizationRule,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toggles := 0
			got := SanitizeArguments(tt.args, tt.rule, func() { toggles++ })

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SanitizeArguments() = %q, want %q", got, tt.want)
			}
			if toggles != tt.wantToggle {
				t.Errorf("debug toggles = %d, want %d", toggles, tt.wantToggle)
			}
		})
	}
}

func TestSanitizeArguments_LeavesInputUntouched(t *testing.T) {
	args := []string{"--savedir", "/tmp/x", "--foo", "bar"}
	_ = SanitizeArguments(args, entities.DefaultSanitizationRule, nil)

	want := []string{"--savedir", "/tmp/x", "--foo", "bar"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("input mutated: %q", args)
	}
}
