package hivsim

import (
	"errors"
	"testing"
)

func TestConfigErrorWrapsAndUnwraps(t *testing.T) {
	inner := errNonPositivePop
	err := newConfigError("model.num_pop", inner)

	if !errors.Is(err, inner) {
		t.Errorf("expected ConfigError to unwrap to the underlying sentinel")
	}
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected newConfigError to return a *ConfigError")
	}
	if ce.Path != "model.num_pop" {
		t.Errorf("expected path preserved, got %q", ce.Path)
	}
}

func TestInvariantErrorMessage(t *testing.T) {
	err := newInvariantError("evaluateTransmission", "relationship has zero HIV-positive endpoints")
	want := "evaluateTransmission: relationship has zero HIV-positive endpoints"
	if err.Error() != want {
		t.Errorf(UnequalStringParameterError, "InvariantError.Error()", want, err.Error())
	}
}
