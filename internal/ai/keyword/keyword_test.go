package keyword

import (
	"context"
	"testing"

	"github.com/spigell/recruit-bot/internal/ai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text     string
		shape    ai.Shape
		category ai.Category
		value    string
	}{
		{text: "Ja, klar!", shape: ai.ShapeYesNo, category: ai.CategoryValidAnswer, value: ai.ValueYes},
		{text: "auf jeden Fall", shape: ai.ShapeYesNo, category: ai.CategoryValidAnswer, value: ai.ValueYes},
		{text: "Nein", shape: ai.ShapeYesNo, category: ai.CategoryValidAnswer, value: ai.ValueNo},
		{text: "eher nicht", shape: ai.ShapeYesNo, category: ai.CategoryValidAnswer, value: ai.ValueNo},
		{text: "Jaguar", shape: ai.ShapeYesNo, category: ai.CategoryUnclear},
		{text: "Wie hoch ist das Gehalt?", shape: ai.ShapeYesNo, category: ai.CategoryQuestion},
		{text: "Ich suche einen Job", shape: ai.ShapeJobOrInfo, category: ai.CategoryValidAnswer, value: ai.ValueJob},
		{text: "Infos bitte", shape: ai.ShapeJobOrInfo, category: ai.CategoryValidAnswer, value: ai.ValueInfo},
		{text: "hmm", shape: ai.ShapeJobOrInfo, category: ai.CategoryUnclear},
		{text: "den Junior bitte", shape: ai.ShapeJobSelection, category: ai.CategoryValidAnswer, value: ai.ValueJob1},
		{text: "Backend", shape: ai.ShapeJobSelection, category: ai.CategoryValidAnswer, value: ai.ValueJob2},
		{text: "3", shape: ai.ShapeJobSelection, category: ai.CategoryValidAnswer, value: ai.ValueJob3},
		{text: "", shape: ai.ShapeJobSelection, category: ai.CategoryUnclear},
	}

	c := New()
	for _, tt := range tests {
		t.Run(string(tt.shape)+"/"+tt.text, func(t *testing.T) {
			got, err := c.Classify(context.Background(), tt.text, tt.shape)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Category != tt.category || got.Value != tt.value {
				t.Fatalf("expected %s/%q, got %s/%q", tt.category, tt.value, got.Category, got.Value)
			}
			if got.Category == ai.CategoryQuestion && got.Reply == "" {
				t.Fatal("questions must carry a reply")
			}
		})
	}
}
