package components

import (
	"strings"
	"testing"
)

func TestRelevanceBar(t *testing.T) {
	colors := DefaultListColors()

	tests := []struct {
		score   float64
		filled  int
		percent string
	}{
		{score: 0, filled: 0, percent: "  0%"},
		{score: 0.5, filled: 5, percent: " 50%"},
		{score: 1, filled: 10, percent: "100%"},
		{score: 1.7, filled: 10, percent: "100%"},
		{score: -0.3, filled: 0, percent: "  0%"},
	}

	for _, tt := range tests {
		bar := RelevanceBar(tt.score, 10, colors.Bar)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("RelevanceBar(%v) filled %d cells, want %d", tt.score, got, tt.filled)
		}
		if !strings.HasSuffix(bar, tt.percent) {
			t.Errorf("RelevanceBar(%v) = %q, want suffix %q", tt.score, bar, tt.percent)
		}
	}
}

func TestList_Navigation(t *testing.T) {
	list := NewList("Documents", 80, 20)
	list.SetItems([]ListItem{{ID: "a", Title: "a"}, {ID: "b", Title: "b"}, {ID: "c", Title: "c"}})

	list.MoveUp()
	if list.Selected != 0 {
		t.Errorf("Expected selection to stay at 0, got %d", list.Selected)
	}
	list.MoveDown()
	list.MoveDown()
	list.MoveDown()
	if list.Selected != 2 {
		t.Errorf("Expected selection to stop at 2, got %d", list.Selected)
	}
	if item := list.SelectedItem(); item == nil || item.ID != "c" {
		t.Errorf("Expected c selected, got %+v", item)
	}

	list.SetItems(nil)
	if list.SelectedItem() != nil {
		t.Error("Expected no selection in an empty list")
	}
}

func TestList_RenderScrolls(t *testing.T) {
	list := NewList("Documents", 80, 6)
	items := make([]ListItem, 10)
	for i := range items {
		items[i] = ListItem{ID: string(rune('a' + i)), Title: "item-" + string(rune('a'+i))}
	}
	list.SetItems(items)
	for i := 0; i < 9; i++ {
		list.MoveDown()
	}

	out := list.Render()
	if !strings.Contains(out, "item-j") {
		t.Errorf("Expected selected item visible, got:\n%s", out)
	}
	if strings.Contains(out, "item-a") {
		t.Errorf("Expected first item scrolled out, got:\n%s", out)
	}
	if !strings.Contains(out, "of 10)") {
		t.Errorf("Expected scroll indicator, got:\n%s", out)
	}
}
