package schema

import (
	"testing"

	"github.com/spf13/cobra"
)

func testTree() *cobra.Command {
	root := &cobra.Command{Use: "defi-agent", Short: "root"}
	tx := &cobra.Command{Use: "tx", Short: "Transaction history"}
	historyCmd := &cobra.Command{Use: "history", Short: "List recorded transactions"}
	historyCmd.Flags().Int("limit", 20, "Maximum entries to return")
	historyCmd.Flags().String("direction", "", "Filter by direction")
	tx.AddCommand(historyCmd)
	root.AddCommand(tx)
	return root
}

func TestBuildWholeTree(t *testing.T) {
	s, err := Build(testTree(), "")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if s.Path != "defi-agent" || len(s.Subcommands) != 1 {
		t.Fatalf("unexpected schema %+v", s)
	}
	if s.Subcommands[0].Subcommands[0].Path != "defi-agent tx history" {
		t.Fatalf("unexpected nested path %+v", s.Subcommands[0])
	}
}

func TestBuildSubtreeCollectsFlags(t *testing.T) {
	s, err := Build(testTree(), "tx history")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(s.Flags) != 2 {
		t.Fatalf("expected two flags, got %+v", s.Flags)
	}
	byName := map[string]FlagSchema{}
	for _, f := range s.Flags {
		byName[f.Name] = f
	}
	if byName["limit"].Type != "int" || byName["limit"].Default != "20" {
		t.Fatalf("unexpected limit flag %+v", byName["limit"])
	}
}

func TestBuildUnknownPath(t *testing.T) {
	if _, err := Build(testTree(), "wallet nope"); err == nil {
		t.Fatal("expected error for unknown path")
	}
}
