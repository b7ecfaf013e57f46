package extract

import (
	"testing"

	"github.com/ledgerscan/ledgerscan/internal/layout"
)

func tok(text string, x0, x1, top, bottom float64) layout.Token {
	return layout.Token{Text: text, X0: x0, X1: x1, Top: top, Bottom: bottom}
}

func TestBetween(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		start string
		end   string
		want  []string
	}{
		{
			name:  "start to end on one page",
			pages: []string{"header Statement Period: Jan 2024 Closing Balance 500"},
			start: "Statement Period",
			end:   "Closing",
			want:  []string{"Statement Period: Jan 2024"},
		},
		{
			name:  "end missing runs to end of page",
			pages: []string{"intro Statement Period: Jan 2024 trailing text"},
			start: "Statement Period",
			end:   "NOPE",
			want:  []string{"Statement Period: Jan 2024 trailing text"},
		},
		{
			name:  "no end marker given",
			pages: []string{"x Statement Period: Jan 2024  "},
			start: "Statement Period",
			want:  []string{"Statement Period: Jan 2024"},
		},
		{
			name:  "pages without start are skipped",
			pages: []string{"nothing here", "pre Total Due 100 post", "also nothing"},
			start: "Total Due",
			want:  []string{"Total Due 100 post"},
		},
		{
			name:  "one result per qualifying page in page order",
			pages: []string{"a MARK one", "no", "b MARK two"},
			start: "MARK",
			want:  []string{"MARK one", "MARK two"},
		},
		{
			name:  "marker never found yields empty list",
			pages: []string{"alpha", "beta"},
			start: "MARK",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Between(tt.pages, tt.start, tt.end)
			if len(got) != len(tt.want) {
				t.Fatalf("Between() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Between()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFloatNearKeyword_RightPicksNearest(t *testing.T) {
	page := layout.NewPage(1, []layout.Token{
		tok("Total", 10, 35, 100, 110),
		tok("Due", 40, 55, 100, 110),
		tok("1,200.00", 70, 110, 100, 110),  // nearer
		tok("9,999.00", 200, 240, 100, 110), // decoy further right
	})

	got, ok := FloatNearKeyword([]layout.Page{page}, "Total Due", Right)
	if !ok {
		t.Fatal("FloatNearKeyword found nothing")
	}
	if got != 1200.00 {
		t.Errorf("FloatNearKeyword = %v, want 1200.00", got)
	}
}

func TestFloatNearKeyword_RightRejectsOffLine(t *testing.T) {
	page := layout.NewPage(1, []layout.Token{
		tok("Total", 10, 35, 100, 110),
		tok("Due", 40, 55, 100, 110),
		// Vertical center offset 6 > SameLineTolerance.
		tok("1,200.00", 70, 110, 106, 116),
	})

	if _, ok := FloatNearKeyword([]layout.Page{page}, "Total Due", Right); ok {
		t.Error("candidate outside y-tolerance should not match")
	}
}

func TestFloatNearKeyword_Left(t *testing.T) {
	page := layout.NewPage(1, []layout.Token{
		tok("450.75", 10, 45, 100, 110),
		tok("Balance", 60, 100, 100, 110),
	})

	got, ok := FloatNearKeyword([]layout.Page{page}, "balance", Left)
	if !ok || got != 450.75 {
		t.Errorf("FloatNearKeyword LEFT = %v, %v; want 450.75, true", got, ok)
	}
}

func TestFloatNearKeyword_Below(t *testing.T) {
	page := layout.NewPage(1, []layout.Token{
		tok("Amount", 100, 140, 50, 60),
		tok("2,500.00", 105, 145, 80, 90), // below, within x-tolerance
		tok("77.00", 300, 330, 80, 90),    // below but far right
		tok("12.00", 100, 140, 20, 30),    // above, wrong direction
	})

	got, ok := FloatNearKeyword([]layout.Page{page}, "Amount", Below)
	if !ok || got != 2500.00 {
		t.Errorf("FloatNearKeyword BELOW = %v, %v; want 2500.00, true", got, ok)
	}
}

func TestFloatNearKeyword_Above(t *testing.T) {
	page := layout.NewPage(1, []layout.Token{
		tok("310.10", 98, 135, 20, 30),
		tok("Subtotal", 100, 140, 50, 60),
	})

	got, ok := FloatNearKeyword([]layout.Page{page}, "SUBTOTAL", Above)
	if !ok || got != 310.10 {
		t.Errorf("FloatNearKeyword ABOVE = %v, %v; want 310.10, true", got, ok)
	}
}

func TestFloatNearKeyword_TokenExactMatching(t *testing.T) {
	// "Totals" must not match keyword "Total": no substring matching.
	page := layout.NewPage(1, []layout.Token{
		tok("Totals", 10, 40, 100, 110),
		tok("1,200.00", 60, 100, 100, 110),
	})

	if _, ok := FloatNearKeyword([]layout.Page{page}, "Total", Right); ok {
		t.Error("keyword matched a token substring; matching must be token-exact")
	}
}

func TestFloatNearKeyword_FirstPageWins(t *testing.T) {
	page1 := layout.NewPage(1, []layout.Token{
		tok("Total", 10, 35, 100, 110),
		tok("100.00", 200, 230, 100, 110), // far, but on the first page
	})
	page2 := layout.NewPage(2, []layout.Token{
		tok("Total", 10, 35, 100, 110),
		tok("999.00", 40, 70, 100, 110), // much closer, but on a later page
	})

	got, ok := FloatNearKeyword([]layout.Page{page1, page2}, "Total", Right)
	if !ok || got != 100.00 {
		t.Errorf("FloatNearKeyword = %v, %v; want first page's 100.00", got, ok)
	}
}

func TestFloatNearKeyword_SkipsPagesWithoutCandidates(t *testing.T) {
	// Page 1 has the keyword but no numeric neighbor; page 2 supplies one.
	page1 := layout.NewPage(1, []layout.Token{
		tok("Total", 10, 35, 100, 110),
		tok("pending", 50, 90, 100, 110),
	})
	page2 := layout.NewPage(2, []layout.Token{
		tok("Total", 10, 35, 100, 110),
		tok("55.25", 50, 80, 100, 110),
	})

	got, ok := FloatNearKeyword([]layout.Page{page1, page2}, "Total", Right)
	if !ok || got != 55.25 {
		t.Errorf("FloatNearKeyword = %v, %v; want 55.25 from page 2", got, ok)
	}
}

func TestFloatNearKeyword_NotFound(t *testing.T) {
	page := layout.NewPage(1, []layout.Token{tok("nothing", 0, 10, 0, 10)})
	if _, ok := FloatNearKeyword([]layout.Page{page}, "Total Due", Right); ok {
		t.Error("expected no match on a page without the keyword")
	}
}

func TestValidDirection(t *testing.T) {
	for _, d := range []Direction{Right, Left, Above, Below} {
		if !ValidDirection(d) {
			t.Errorf("ValidDirection(%q) = false", d)
		}
	}
	if ValidDirection("DIAGONAL") {
		t.Error("ValidDirection(\"DIAGONAL\") = true")
	}
}
