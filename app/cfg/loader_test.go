package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestClampTimeout(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 45},
		{44, 45},
		{45, 45},
		{300, 300},
		{600, 600},
		{601, 600},
	}

	for _, c := range cases {
		if got := clampTimeout(c.in); got != c.want {
			t.Errorf("clampTimeout(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestGetPanicsWithoutLoad(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Get should panic when configuration is not loaded")
		}
	}()

	globalCfg = nil
	Get()
}
