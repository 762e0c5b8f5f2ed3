package domain

import "testing"

func TestNewViewState(t *testing.T) {
	state := NewViewState("user-1", 7, 10)

	if state.UserID != "user-1" || state.MetatextID != 7 {
		t.Errorf("unexpected identity %s/%d", state.UserID, state.MetatextID)
	}
	if state.CurrentPage != 1 {
		t.Errorf("expected page 1, got %d", state.CurrentPage)
	}
	if state.ChunksPerPage != 10 {
		t.Errorf("expected 10 chunks per page, got %d", state.ChunksPerPage)
	}
	if state.Query != "" || state.OnlyFavorites {
		t.Error("expected no filters on a new view")
	}
	if state.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
}

func TestNewViewState_DefaultPageSize(t *testing.T) {
	for _, perPage := range []int{0, -3} {
		state := NewViewState("user-1", 1, perPage)
		if state.ChunksPerPage != DefaultChunksPerPage {
			t.Errorf("perPage %d: expected default %d, got %d", perPage, DefaultChunksPerPage, state.ChunksPerPage)
		}
	}
}

func TestViewUpdateIsEmpty(t *testing.T) {
	query := "whale"
	only := true
	page := 2

	tests := []struct {
		name     string
		update   ViewUpdate
		expected bool
	}{
		{"empty", ViewUpdate{}, true},
		{"query", ViewUpdate{Query: &query}, false},
		{"favorites", ViewUpdate{OnlyFavorites: &only}, false},
		{"page", ViewUpdate{Page: &page}, false},
		{"per page", ViewUpdate{ChunksPerPage: &page}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.update.IsEmpty() != tt.expected {
				t.Errorf("expected IsEmpty() = %v", tt.expected)
			}
		})
	}
}

func TestPollStateIsTerminal(t *testing.T) {
	tests := []struct {
		state    PollState
		expected bool
	}{
		{PollStatePolling, false},
		{PollStateResolved, true},
		{PollStateTimedOut, true},
		{PollStateCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if tt.state.IsTerminal() != tt.expected {
				t.Errorf("expected IsTerminal() = %v", tt.expected)
			}
		})
	}
}
