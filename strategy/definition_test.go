package strategy

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValid(t *testing.T) {
	t.Parallel()

	d := Default()
	assert.NoError(t, d.Validate())
	assert.Equal(t, 2.0, d.Risk.RiskPercent)
	assert.Equal(t, 50.0, d.Exit.StopLossPips)
	assert.Equal(t, 100.0, d.Exit.TakeProfitPips)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(d *Definition)
		field  string
	}{
		{"zero stop", func(d *Definition) { d.Exit.StopLossPips = 0 }, "exit_rules.stop_loss_pips"},
		{"negative take", func(d *Definition) { d.Exit.TakeProfitPips = -5 }, "exit_rules.take_profit_pips"},
		{"zero risk", func(d *Definition) { d.Risk.RiskPercent = 0 }, "risk_management.risk_percent"},
		{"risk above max", func(d *Definition) { d.Risk.RiskPercent = 25 }, "risk_management.risk_percent"},
		{"nan risk", func(d *Definition) { d.Risk.RiskPercent = math.NaN() }, "risk_management.risk_percent"},
		{"inverted zone", func(d *Definition) {
			d.Elements = Elements{Zone{Lower: 1.2, Upper: 1.1, Action: BuyInZone}}
		}, "visual_elements[0]"},
		{"inf line", func(d *Definition) {
			d.Elements = Elements{HorizontalLine{}, HorizontalLine{Price: math.Inf(1)}}
		}, "visual_elements[1]"},
		{"nil element", func(d *Definition) { d.Elements = Elements{nil} }, "visual_elements[0]"},
		{"pointer line", func(d *Definition) {
			d.Elements = Elements{&HorizontalLine{Price: 1.1, Action: BuyAbove}}
		}, "visual_elements[0]"},
		{"pointer zone", func(d *Definition) {
			d.Elements = Elements{Zone{Lower: 1.0, Upper: 1.1, Action: BuyInZone}, &Zone{Lower: 1.0, Upper: 1.1}}
		}, "visual_elements[1]"},
		{"pointer trendline", func(d *Definition) { d.Elements = Elements{&Trendline{}} }, "visual_elements[0]"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := Default()
			tt.mutate(&d)
			err := d.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidStrategy)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidateAllowsMaxRisk(t *testing.T) {
	t.Parallel()

	d := Default()
	d.Risk.RiskPercent = MaxRiskPercent
	assert.NoError(t, d.Validate())
}

func TestSaveAndLoadFile(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{".json", ".yaml"} {
		ext := ext
		t.Run(ext, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "strategy"+ext)
			d := Default()
			d.Elements = append(d.Elements, Zone{Lower: 1.05, Upper: 1.06, Action: SellInZone}, Trendline{})

			require.NoError(t, d.SaveFile(path))

			got, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, d.Name, got.Name)
			assert.Equal(t, d.Exit, got.Exit)
			assert.Equal(t, d.Risk, got.Risk)
			require.Len(t, got.Elements, 4)
			assert.Equal(t, d.Elements[0], got.Elements[0])
			assert.Equal(t, d.Elements[2], got.Elements[2])
			assert.Equal(t, KindTrendline, got.Elements[3].Kind())
		})
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.json")
	body := `{"visual_elements": [], "exit_rules": {"stop_loss_pips": 50, "take_profit_pips": 100}, "risk_management": {}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, ErrInvalidStrategy)
	assert.Contains(t, err.Error(), "risk_percent")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
