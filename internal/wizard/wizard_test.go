package wizard

import "testing"

func TestStepRoundTrip(t *testing.T) {
	steps := []Step{StepLogin, StepLanding, StepGenerate, StepChat, StepFinal}
	for _, s := range steps {
		if got := ParseStep(s.String()); got != s {
			t.Errorf("ParseStep(%q) = %v, want %v", s.String(), got, s)
		}
	}
}

func TestParseStepUnknown(t *testing.T) {
	if got := ParseStep("billing"); got != StepLanding {
		t.Errorf("unknown step parsed to %v, want StepLanding", got)
	}
	if got := ParseStep(""); got != StepLanding {
		t.Errorf("empty step parsed to %v, want StepLanding", got)
	}
}

func TestFromBackend(t *testing.T) {
	cases := map[string]Step{
		"category":        StepLanding,
		"visual_settings": StepGenerate,
		"chat":            StepChat,
		"final_prompt":    StepFinal,
		"garbage":         StepLanding,
	}
	for name, want := range cases {
		if got := FromBackend(name); got != want {
			t.Errorf("FromBackend(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestAllowedIsForwardOnly(t *testing.T) {
	allowed := []struct{ from, to Step }{
		{StepLogin, StepLanding},
		{StepLanding, StepGenerate},
		{StepGenerate, StepChat},
		{StepGenerate, StepFinal},
		{StepChat, StepFinal},
		{StepFinal, StepLanding},
	}
	for _, c := range allowed {
		if !Allowed(c.from, c.to) {
			t.Errorf("Allowed(%v, %v) = false, want true", c.from, c.to)
		}
	}

	forbidden := []struct{ from, to Step }{
		{StepChat, StepGenerate},
		{StepFinal, StepChat},
		{StepFinal, StepGenerate},
		{StepGenerate, StepLanding},
		{StepLanding, StepFinal},
	}
	for _, c := range forbidden {
		if Allowed(c.from, c.to) {
			t.Errorf("Allowed(%v, %v) = true, want false", c.from, c.to)
		}
	}
}

func TestAllowedSelfAndLogout(t *testing.T) {
	for _, s := range []Step{StepLogin, StepLanding, StepGenerate, StepChat, StepFinal} {
		if !Allowed(s, s) {
			t.Errorf("Allowed(%v, %v) = false, want true", s, s)
		}
	}
	// Forced re-login is reachable from every authenticated step.
	for _, s := range []Step{StepLanding, StepGenerate, StepChat, StepFinal} {
		if !Allowed(s, StepLogin) {
			t.Errorf("Allowed(%v, StepLogin) = false, want true", s)
		}
	}
}
