package platform

import (
	"context"
	"errors"
	"runtime"
	"testing"
)

// MockDetector is a test implementation of Detector.
type MockDetector struct {
	target Target
	err    error
	calls  int
}

func (m *MockDetector) Detect(ctx context.Context) (Target, error) {
	m.calls++
	return m.target, m.err
}

func fakeInfo(id, family string, err error) func(context.Context) (string, string, string, error) {
	return func(context.Context) (string, string, string, error) {
		return id, family, "", err
	}
}

func TestRealDetector_Detect(t *testing.T) {
	tests := []struct {
		name       string
		goos       string
		goarch     string
		info       func(context.Context) (string, string, string, error)
		translated bool
		want       Target
		wantErr    bool
	}{
		{
			name:   "glibc_linux",
			goos:   "linux",
			goarch: "amd64",
			info:   fakeInfo("ubuntu", "debian", nil),
			want:   Target{Linux, Amd64},
		},
		{
			name:   "alpine_linux",
			goos:   "linux",
			goarch: "arm64",
			info:   fakeInfo("alpine", "alpine", nil),
			want:   Target{Alpine, Arm64},
		},
		{
			name:   "distro_detection_failure_falls_back",
			goos:   "linux",
			goarch: "amd64",
			info:   fakeInfo("", "", errors.New("no os-release")),
			want:   Target{Linux, Amd64},
		},
		{
			name:   "native_macos",
			goos:   "darwin",
			goarch: "arm64",
			want:   Target{Darwin, Arm64},
		},
		{
			name:       "rosetta_reports_arm64",
			goos:       "darwin",
			goarch:     "amd64",
			translated: true,
			want:       Target{Darwin, Arm64},
		},
		{
			name:   "intel_macos",
			goos:   "darwin",
			goarch: "amd64",
			want:   Target{Darwin, Amd64},
		},
		{
			name:   "windows",
			goos:   "windows",
			goarch: "amd64",
			want:   Target{Win32, Amd64},
		},
		{
			name:    "unsupported_arch",
			goos:    "linux",
			goarch:  "386",
			info:    fakeInfo("ubuntu", "debian", nil),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			translated := tt.translated
			d := &RealDetector{
				goos:         tt.goos,
				goarch:       tt.goarch,
				platformInfo: tt.info,
				translated:   func() bool { return translated },
			}

			got, err := d.Detect(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Detect() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRealDetector_Host(t *testing.T) {
	if runtime.GOARCH != "amd64" && runtime.GOARCH != "arm64" {
		t.Skip("unsupported host architecture")
	}

	target, err := NewDetector().Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	switch runtime.GOOS {
	case "linux":
		if target.Platform != Linux && target.Platform != Alpine {
			t.Errorf("Platform = %v, want linux or alpine", target.Platform)
		}
	case "darwin":
		if target.Platform != Darwin {
			t.Errorf("Platform = %v, want darwin", target.Platform)
		}
	case "windows":
		if target.Platform != Win32 {
			t.Errorf("Platform = %v, want win32", target.Platform)
		}
	}
}

func TestRealDetector_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewDetector().Detect(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		name      string
		detected  Target
		platform  string
		arch      string
		want      Target
		wantCalls int
		wantErr   bool
	}{
		{
			name:      "no_overrides",
			detected:  Target{Linux, Amd64},
			want:      Target{Linux, Amd64},
			wantCalls: 1,
		},
		{
			name:      "platform_override_only",
			detected:  Target{Linux, Arm64},
			platform:  "darwin",
			want:      Target{Darwin, Arm64},
			wantCalls: 1,
		},
		{
			name:      "both_overrides_skip_detection",
			detected:  Target{Linux, Amd64},
			platform:  "win32",
			arch:      "arm64",
			want:      Target{Win32, Arm64},
			wantCalls: 0,
		},
		{
			name:      "invalid_arch_override",
			detected:  Target{Linux, Amd64},
			arch:      "sparc",
			wantCalls: 1,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockDetector{target: tt.detected}

			got, err := ResolveTarget(context.Background(), mock, tt.platform, tt.arch)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveTarget() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ResolveTarget() = %v, want %v", got, tt.want)
			}
			if mock.calls != tt.wantCalls {
				t.Errorf("detector called %d times, want %d", mock.calls, tt.wantCalls)
			}
		})
	}
}

func TestResolveTarget_DetectorError(t *testing.T) {
	mock := &MockDetector{err: errors.New("boom")}

	if _, err := ResolveTarget(context.Background(), mock, "", ""); err == nil {
		t.Error("expected detector error to propagate")
	}
}
