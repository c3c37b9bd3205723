package components

import "testing"

func TestTimersExpireBelowZero(t *testing.T) {
	var tm Timers
	tm[TimerHunger] = 0.3

	tm.Tick(0.3)
	if tm.Expired(TimerHunger) {
		t.Errorf("timer at %v should not be expired", tm[TimerHunger])
	}
	tm.Tick(0.01)
	if !tm.Expired(TimerHunger) {
		t.Errorf("timer at %v should be expired", tm[TimerHunger])
	}
}

func TestParseKind(t *testing.T) {
	for i, name := range KindNames() {
		k, err := ParseKind(name)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", name, err)
		}
		if k != Kind(i) || k.String() != name {
			t.Errorf("ParseKind(%q) = %v, want %v", name, k, Kind(i))
		}
	}
	if _, err := ParseKind("wolf"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestStrategyTag(t *testing.T) {
	tests := []struct {
		s    Strategy
		want AreaTag
	}{
		{ForageOpen, TagOpen},
		{ForageCover, TagCovered},
		{ActiveHunt, TagOpen},
		{Ambush, TagCovered},
	}
	for _, tt := range tests {
		if got := tt.s.Tag(); got != tt.want {
			t.Errorf("%v.Tag() = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestAreaContains(t *testing.T) {
	a := Area{Center: Position{X: 100, Y: 100}, Width: 40, Height: 20}
	tests := []struct {
		p    Position
		want bool
	}{
		{Position{100, 100}, true},
		{Position{80, 90}, true},
		{Position{79, 100}, false},
		{Position{100, 111}, false},
	}
	for _, tt := range tests {
		if got := a.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}
