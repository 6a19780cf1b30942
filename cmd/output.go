package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/velkoja/bookscout/internal/catalog"
	"github.com/velkoja/bookscout/internal/resolve"
)

func printResult(result *resolve.Result) error {
	if outputJSON {
		return printJSON(result)
	}
	fmt.Print(formatResult(result))
	return nil
}

func printResults(results []resolve.Result) error {
	if outputJSON {
		return printJSON(results)
	}
	for i := range results {
		fmt.Printf("[%d] %s", i+1, formatResult(&results[i]))
	}
	return nil
}

func printBooks(books []catalog.Book) error {
	if outputJSON {
		return printJSON(books)
	}
	if len(books) == 0 {
		fmt.Println("Catalog is empty")
		return nil
	}
	for _, b := range books {
		line := b.Title
		if len(b.Authors) > 0 {
			line += " — " + strings.Join(b.Authors, ", ")
		}
		if b.ISBN != "" {
			line += " (" + b.ISBN + ")"
		}
		fmt.Printf("%s  %s\n", b.ID, line)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatResult(r *resolve.Result) string {
	var sb strings.Builder

	title := r.Title
	if r.Subtitle != nil {
		title += ": " + *r.Subtitle
	}
	fmt.Fprintf(&sb, "%s [%s]\n", title, r.Source)

	if len(r.Authors) > 0 {
		names := make([]string, len(r.Authors))
		for i, a := range r.Authors {
			names[i] = a.Name
		}
		fmt.Fprintf(&sb, "  Authors:   %s\n", strings.Join(names, ", "))
	}
	if r.Publisher != nil {
		fmt.Fprintf(&sb, "  Publisher: %s\n", *r.Publisher)
	}
	if r.PublishedYear != nil {
		fmt.Fprintf(&sb, "  Published: %d\n", *r.PublishedYear)
	}
	if r.ISBN != nil {
		fmt.Fprintf(&sb, "  ISBN:      %s\n", *r.ISBN)
	}
	if r.Pages != nil {
		fmt.Fprintf(&sb, "  Pages:     %d\n", *r.Pages)
	}
	if len(r.Categories) > 0 {
		fmt.Fprintf(&sb, "  Categories: %s\n", strings.Join(r.Categories, ", "))
	}
	if r.CoverURL != nil {
		fmt.Fprintf(&sb, "  Cover:     %s\n", *r.CoverURL)
	}
	if r.InLibrary {
		id := ""
		if r.BookID != nil {
			id = " (" + *r.BookID + ")"
		}
		fmt.Fprintf(&sb, "  In catalog%s\n", id)
	}
	return sb.String()
}
