package resolve

import (
	"testing"
)

func TestSplitCollaborations(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"single name", "Radiohead", []string{"Radiohead"}},
		{"feat with dot", "Calvin Harris feat. Rihanna", []string{"Calvin Harris", "Rihanna"}},
		{"feat without dot", "Calvin Harris feat Rihanna", []string{"Calvin Harris", "Rihanna"}},
		{"ft", "Drake ft. Majid Jordan", []string{"Drake", "Majid Jordan"}},
		{"ampersand", "Simon & Garfunkel", []string{"Simon", "Garfunkel"}},
		{"x", "Charli XCX x Troye Sivan", []string{"Charli XCX", "Troye Sivan"}},
		{"with", "Kylie Minogue with Nick Cave", []string{"Kylie Minogue", "Nick Cave"}},
		{"vs", "Eminem vs. DJ Polo", []string{"Eminem", "DJ Polo"}},
		{"presents", "Armand van Helden presents Old School Junkies", []string{"Armand van Helden", "Old School Junkies"}},
		{"features", "Timbaland features Keri Hilson", []string{"Timbaland", "Keri Hilson"}},
		{"uppercase marker", "A FEAT. B", []string{"A", "B"}},
		{"padded slash", "Nina Simone / Felix da Housecat", []string{"Nina Simone", "Felix da Housecat"}},
		{"unspaced slash survives", "AC/DC", []string{"AC/DC"}},
		{"slash then feat", "AC/DC / Guns feat. Roses", []string{"AC/DC", "Guns", "Roses"}},
		{"dedupe case insensitive", "Beyonce feat. BEYONCE", []string{"Beyonce"}},
		{"dedupe keeps first casing", "MGMT & mgmt & Tame Impala", []string{"MGMT", "Tame Impala"}},
		{"x requires spaces", "Xzibit", []string{"Xzibit"}},
		{"internal whitespace folded", "The  War   on Drugs feat.  Someone", []string{"The War on Drugs", "Someone"}},
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"chained markers", "A feat. B & C x D", []string{"A", "B", "C", "D"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitCollaborations(tc.raw)
			if len(got) != len(tc.want) {
				t.Fatalf("SplitCollaborations(%q) = %v, want %v", tc.raw, got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("token %d = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  Pink  Floyd  ", "Pink Floyd"},
		{"one", "one"},
		{"\ttabs\tand\nnewlines\n", "tabs and newlines"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := CollapseWhitespace(tc.in); got != tc.want {
			t.Errorf("CollapseWhitespace(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
