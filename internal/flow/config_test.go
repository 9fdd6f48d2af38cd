package flow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synthsweep/internal/flow"
	"github.com/roach88/synthsweep/internal/sweep"
)

func design(t *testing.T, top string, options map[string]sweep.Value, domains ...sweep.ParameterDomain) sweep.DesignSpec {
	t.Helper()
	spec, err := sweep.NewDesignSpec(top, domains, []string{"/src/" + top + ".sv"}, "", options)
	require.NoError(t, err)
	return spec
}

func domain(t *testing.T, name string, vals ...any) sweep.ParameterDomain {
	t.Helper()
	d, err := sweep.NewDomain(name, vals...)
	require.NoError(t, err)
	return d
}

func TestBuildConfig_Document(t *testing.T) {
	spec := design(t, "mux_bin_base", map[string]sweep.Value{"USE_SYNLIG": sweep.BoolValue(true)},
		domain(t, "WIDTH", 8), domain(t, "MODE", "fast"))
	combos, err := sweep.Generate(spec)
	require.NoError(t, err)
	require.Len(t, combos, 1)

	cfg, err := flow.BuildConfig(spec, combos[0], "sky130A")
	require.NoError(t, err)

	data, err := cfg.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t,
		`{"DESIGN_NAME":"mux_bin_base","PDK":"sky130A","SYNTH_PARAMETERS":["WIDTH=8","MODE=fast"],"USE_SYNLIG":true,"VERILOG_FILES":["/src/mux_bin_base.sv"]}`,
		string(data))
}

func TestBuildConfig_ClockPortIncludedWhenSet(t *testing.T) {
	spec, err := sweep.NewDesignSpec("eql_cmp", nil, []string{"/src/eql_cmp.sv"}, "clk", nil)
	require.NoError(t, err)
	combos, err := sweep.Generate(spec)
	require.NoError(t, err)

	cfg, err := flow.BuildConfig(spec, combos[0], "sky130A")
	require.NoError(t, err)
	assert.Equal(t, "clk", cfg.Document()[flow.KeyClockPort])
	assert.Empty(t, cfg.Parameters)
}

func TestEngineConfig_Validate(t *testing.T) {
	valid := flow.EngineConfig{
		Top:         "top",
		ProcessTech: "sky130A",
		Sources:     []string{"/abs/top.sv"},
		Parameters:  []string{"W=1"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*flow.EngineConfig)
		field  string
	}{
		{"missing top", func(c *flow.EngineConfig) { c.Top = "" }, "top"},
		{"missing pdk", func(c *flow.EngineConfig) { c.ProcessTech = " " }, "process_tech"},
		{"no sources", func(c *flow.EngineConfig) { c.Sources = nil }, "sources"},
		{"relative source", func(c *flow.EngineConfig) { c.Sources = []string{"rel/top.sv"} }, "sources[0]"},
		{"bad assignment", func(c *flow.EngineConfig) { c.Parameters = []string{"W"} }, "parameters[0]"},
		{"clock whitespace", func(c *flow.EngineConfig) { c.ClockPort = "clk i" }, "clock_port"},
		{"lower-case option", func(c *flow.EngineConfig) {
			c.Options = map[string]sweep.Value{"use_synlig": sweep.BoolValue(true)}
		}, "engine_options"},
		{"reserved option", func(c *flow.EngineConfig) {
			c.Options = map[string]sweep.Value{flow.KeyPDK: sweep.StringValue("gf180")}
		}, "engine_options"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			var ce *flow.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestEngineConfig_Fingerprint(t *testing.T) {
	base := flow.EngineConfig{Top: "t", ProcessTech: "sky130A", Sources: []string{"/t.sv"}, Parameters: []string{"W=1"}}
	fp1, err := base.Fingerprint()
	require.NoError(t, err)
	fp2, err := base.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)

	changed := base
	changed.Parameters = []string{"W=2"}
	fp3, err := changed.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)
}
