package services

import (
	"fmt"
	"strings"

	"reverb-sync/models"
)

// PrintReport prints a human-readable sync report and returns the
// update and create counts.
func PrintReport(report []*models.ReportItem) (updateCount, createCount int) {
	sep := strings.Repeat("=", 100)
	fmt.Printf("\n%s\n", sep)
	fmt.Printf("%-4s %-10s %-14s %-55s %s\n", "#", "Action", "Price", "Name", "Info")
	fmt.Println(sep)

	skipCount := 0

	for i, item := range report {
		var name, price string
		if item.Listing != nil {
			name = truncate(item.Listing.Name, 54)
			price = item.Listing.PriceDisplay
		}
		warnStr := strings.Join(item.Warnings, "; ")

		switch item.Action {
		case models.ActionCreate:
			createCount++
			fmt.Printf("%-4d %-10s %-14s %-55s %s\n", i+1, "+ NEW", price, name, warnStr)
		case models.ActionUpdate:
			updateCount++
			fmt.Printf("%-4d %-10s %-14s %-55s id=%d  %s\n", i+1, "~ UPD", price, name, item.Entry.ID, warnStr)
			printChanges(item)
		case models.ActionOK:
			fmt.Printf("%-4d %-10s %-14s %-55s id=%d  %s\n", i+1, "OK", price, name, item.Entry.ID, warnStr)
		default:
			skipCount++
			fmt.Printf("%-4d %-10s %-14s %-55s %s\n", i+1, "! SKIP", price, name, warnStr)
		}
	}

	fmt.Println(sep)
	okCount := len(report) - updateCount - createCount - skipCount
	fmt.Printf("\n  Total: %d  |  Up to date: %d  |  Update: %d  |  New: %d\n",
		len(report), okCount, updateCount, createCount)

	return updateCount, createCount
}

// PrintValidationReport prints a validation report keyed by catalog
// entry and returns the number of entries needing an update.
func PrintValidationReport(report []*models.ReportItem) (updateCount int) {
	sep := strings.Repeat("=", 100)
	fmt.Printf("\n%s\n", sep)
	fmt.Printf("%-6s %-55s %-14s %s\n", "ID", "Name", "Price", "Status")
	fmt.Println(sep)

	skipCount := 0

	for _, item := range report {
		entry := item.Entry
		name := truncate(entry.Name, 54)
		var price string
		if item.Listing != nil {
			price = item.Listing.PriceDisplay
		}
		warnStr := strings.Join(item.Warnings, "; ")

		switch {
		case item.Action == models.ActionSkip:
			skipCount++
			fmt.Printf("%-6d %-55s %-14s ! %s\n", entry.ID, name, price, warnStr)
		case len(item.Changes) > 0:
			updateCount++
			if warnStr != "" {
				warnStr = "  (" + warnStr + ")"
			}
			fmt.Printf("%-6d %-55s %-14s ~ NEEDS UPDATE%s\n", entry.ID, name, price, warnStr)
			printChanges(item)
		default:
			if warnStr != "" {
				warnStr = "  (" + warnStr + ")"
			}
			fmt.Printf("%-6d %-55s %-14s up to date%s\n", entry.ID, name, price, warnStr)
		}
	}

	fmt.Println(sep)
	okCount := len(report) - updateCount - skipCount
	fmt.Printf("\n  Total: %d  |  Up to date: %d  |  Need update: %d  |  Skipped: %d\n",
		len(report), okCount, updateCount, skipCount)

	return updateCount
}

// printChanges prints one indented old → new line per changed field.
func printChanges(item *models.ReportItem) {
	old := map[string]any{}
	if e := item.Entry; e != nil {
		old[models.FieldValue] = e.Value
		old[models.FieldShipping] = e.Shipping
		old[models.FieldIsAvailable] = e.IsAvailable
		old[models.FieldOffers] = e.AcceptOffers
		old[models.FieldPublishedAt] = e.PublishedAt
	}

	for field, newVal := range item.Changes {
		oldVal, ok := old[field]
		if !ok {
			oldVal = "—"
		}
		fmt.Printf("%30s %s: %v → %v\n", "", field, oldVal, newVal)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
