package params

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/navlaunch/pkg/types"
)

const slamParams = `slam_toolbox:
  ros__parameters:
    # Plugin params
    solver_plugin: solver_plugins::CeresSolver
    odom_frame: odom
    map_frame: map
    base_frame: base_link
    scan_topic: /scan
    mode: mapping
    resolution: 0.05
    minimum_travel_distance: 0.0
    map_update_interval: 5.0
    use_scan_matching: true
    throttle_scans: 1
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRewrite_EmptyRewritesIsIdentity(t *testing.T) {
	source := writeFile(t, "slam.yaml", slamParams)
	dest := filepath.Join(t.TempDir(), "out", "slam.yaml")

	require.NoError(t, RewriteFile(source, dest, RewriteOptions{ConvertTypes: true}))

	want, err := Load(source)
	require.NoError(t, err)
	got, err := Load(dest)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	raw, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# Plugin params")
}

func TestRewrite_RootKeyScopesDocument(t *testing.T) {
	source := writeFile(t, "slam.yaml", slamParams)
	dest := filepath.Join(t.TempDir(), "slam.yaml")

	require.NoError(t, RewriteFile(source, dest, RewriteOptions{RootKey: "robot1", ConvertTypes: true}))

	got, err := Load(dest)
	require.NoError(t, err)
	require.Len(t, got, 1)

	scoped, ok := got["robot1"].(map[string]interface{})
	require.True(t, ok)
	node := scoped["slam_toolbox"].(map[string]interface{})["ros__parameters"].(map[string]interface{})
	assert.Equal(t, 0.05, node["resolution"])
	assert.Equal(t, true, node["use_scan_matching"])
	assert.Equal(t, 1, node["throttle_scans"])
	assert.Equal(t, "/scan", node["scan_topic"])
}

func TestRewrite_Substitutions(t *testing.T) {
	source := writeFile(t, "slam.yaml", slamParams)

	tests := []struct {
		name     string
		opts     RewriteOptions
		key      string
		expected interface{}
	}{
		{
			name:     "leaf key with conversion",
			opts:     RewriteOptions{Rewrites: map[string]string{"throttle_scans": "3"}, ConvertTypes: true},
			key:      "throttle_scans",
			expected: 3,
		},
		{
			name:     "leaf key without conversion stays text",
			opts:     RewriteOptions{Rewrites: map[string]string{"throttle_scans": "3"}},
			key:      "throttle_scans",
			expected: "3",
		},
		{
			name:     "booleans convert regardless",
			opts:     RewriteOptions{Rewrites: map[string]string{"use_scan_matching": "False"}},
			key:      "use_scan_matching",
			expected: false,
		},
		{
			name:     "dotted path",
			opts:     RewriteOptions{Rewrites: map[string]string{"slam_toolbox.ros__parameters.resolution": "0.1"}, ConvertTypes: true},
			key:      "resolution",
			expected: 0.1,
		},
		{
			name:     "dotted path is added when missing",
			opts:     RewriteOptions{Rewrites: map[string]string{"slam_toolbox.ros__parameters.use_sim_time": "true"}},
			key:      "use_sim_time",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Rewrite(source, tt.opts)
			require.NoError(t, err)

			var out map[string]map[string]map[string]interface{}
			require.NoError(t, doc.Decode(&out))
			assert.Equal(t, tt.expected, out["slam_toolbox"]["ros__parameters"][tt.key])
		})
	}
}

func TestRewrite_Errors(t *testing.T) {
	_, err := Rewrite(filepath.Join(t.TempDir(), "missing.yaml"), RewriteOptions{})
	require.Error(t, err)

	bad := writeFile(t, "bad.yaml", "slam_toolbox: [unclosed\n")
	_, err = Rewrite(bad, RewriteOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)

	list := writeFile(t, "list.yaml", "- a\n- b\n")
	_, err = Rewrite(list, RewriteOptions{})
	assert.ErrorContains(t, err, "mapping")

	conflict := writeFile(t, "conflict.yaml", "a: 1\n")
	_, err = Rewrite(conflict, RewriteOptions{Rewrites: map[string]string{"a.b": "2"}})
	assert.ErrorContains(t, err, "not a mapping")
}

func TestParseScalar(t *testing.T) {
	tests := []struct {
		in   string
		want interface{}
	}{
		{"true", true},
		{"false", false},
		{"42", 42},
		{"0.5", 0.5},
		{"", ""},
		{"robot1", "robot1"},
		{"/opt/ros/share/x.yaml", "/opt/ros/share/x.yaml"},
		{"[1, 2]", "[1, 2]"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseScalar(tt.in))
		})
	}
}

func TestWriteOverlay(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "rviz2.yaml")
	require.NoError(t, WriteOverlay(dest, []types.ParameterValue{
		{Name: "use_sim_time", Value: true},
		{Name: "frame", Value: "map"},
	}))

	got, err := Load(dest)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"/**": map[string]interface{}{
			"ros__parameters": map[string]interface{}{
				"use_sim_time": true,
				"frame":        "map",
			},
		},
	}, got)
}
