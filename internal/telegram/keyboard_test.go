package telegram

import "testing"

func TestGrid(t *testing.T) {
	rows := Grid(2,
		InlineButton("a", "cb_a"),
		InlineButton("b", "cb_b"),
		InlineButton("c", "cb_c"),
		InlineButton("d", "cb_d"),
		InlineButton("e", "cb_e"),
	)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if len(rows[0]) != 2 || len(rows[1]) != 2 || len(rows[2]) != 1 {
		t.Errorf("row sizes = %d/%d/%d", len(rows[0]), len(rows[1]), len(rows[2]))
	}
	if rows[2][0].Text != "e" {
		t.Errorf("last button = %q", rows[2][0].Text)
	}
}

func TestPaginationRow(t *testing.T) {
	first := PaginationRow(0, 3, "history_page")
	if len(first) != 2 {
		t.Fatalf("first page row = %d buttons, want 2 (no prev)", len(first))
	}
	if first[1].CallbackData != "history_page_1" {
		t.Errorf("next callback = %q", first[1].CallbackData)
	}

	middle := PaginationRow(1, 3, "history_page")
	if len(middle) != 3 {
		t.Fatalf("middle page row = %d buttons, want 3", len(middle))
	}
	if middle[0].CallbackData != "history_page_0" || middle[2].CallbackData != "history_page_2" {
		t.Errorf("prev/next callbacks = %q / %q", middle[0].CallbackData, middle[2].CallbackData)
	}
	if middle[1].Text != "2/3" || middle[1].CallbackData != "cur" {
		t.Errorf("indicator = %q (%q)", middle[1].Text, middle[1].CallbackData)
	}

	last := PaginationRow(2, 3, "history_page")
	if len(last) != 2 {
		t.Fatalf("last page row = %d buttons, want 2 (no next)", len(last))
	}
}
