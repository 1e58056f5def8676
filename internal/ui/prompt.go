package ui

import (
	"fmt"
	"strings"

	"github.com/aiomayo/portwatch/internal/finder"
	"github.com/charmbracelet/huh"
)

// ConfirmKill asks before terminating targets, listing them in the prompt.
func ConfirmKill(targets []finder.Target) (bool, error) {
	labels := make([]string, len(targets))
	for i, t := range targets {
		labels[i] = TargetLabel(t)
	}

	var confirmed bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Kill %d process(es)?", len(targets))).
			Description(strings.Join(labels, "\n")).
			Affirmative("Kill").
			Negative("Cancel").
			Value(&confirmed),
	)).Run()
	return confirmed, err
}

// PickTargets lets the user select a subset of targets. The result keeps the
// order of targets.
func PickTargets(targets []finder.Target) ([]finder.Target, error) {
	options := make([]huh.Option[int], len(targets))
	for i, t := range targets {
		options[i] = huh.NewOption(TargetLabel(t), i)
	}

	var selected []int
	err := huh.NewForm(huh.NewGroup(
		huh.NewMultiSelect[int]().
			Title("Select processes to kill").
			Description("space to toggle, enter to confirm").
			Options(options...).
			Filterable(true).
			Value(&selected),
	)).Run()
	if err != nil {
		return nil, err
	}

	picked := make([]bool, len(targets))
	for _, i := range selected {
		picked[i] = true
	}
	var result []finder.Target
	for i, t := range targets {
		if picked[i] {
			result = append(result, t)
		}
	}
	return result, nil
}

// Choose asks for one of options and returns the selected value.
func Choose[T comparable](title string, options []huh.Option[T]) (T, error) {
	var choice T
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[T]().
			Title(title).
			Options(options...).
			Value(&choice),
	)).Run()
	return choice, err
}

// TargetLabel renders a target as "pid name :port :port".
func TargetLabel(t finder.Target) string {
	name := t.Name
	if name == "" {
		name = "?"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-8d %-20s", t.PID, name)
	for _, p := range t.Ports {
		fmt.Fprintf(&b, " :%d", p)
	}
	return b.String()
}
