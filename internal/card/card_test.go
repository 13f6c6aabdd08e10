package card

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		norm string
	}{
		{"9860120163319797", KindCandidate, "9860120163319797"},
		{" 9860 1201 6331 9797 ", KindCandidate, "9860120163319797"},
		{"9860\t1201\n6331 9797", KindCandidate, "9860120163319797"},
		{"986012016331979", KindIgnored, "986012016331979"},
		{"98601201633197971", KindIgnored, "98601201633197971"},
		{"9860-1201-6331-9797", KindIgnored, "9860-1201-6331-9797"},
		{"٩٨٦٠١٢٠١٦٣٣١٩٧٩٧", KindIgnored, "٩٨٦٠١٢٠١٦٣٣١٩٧٩٧"},
		{"salom", KindIgnored, "salom"},
		{"", KindIgnored, ""},
	}
	for _, tc := range cases {
		norm, kind := Classify(tc.in)
		if kind != tc.want || norm != tc.norm {
			t.Fatalf("Classify(%q) = (%q, %s), want (%q, %s)", tc.in, norm, kind, tc.norm, tc.want)
		}
	}
}
