// package formatter renders catalog items for the terminal and for export (table, JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/tidalx/internal/models"
	"github.com/desertthunder/tidalx/internal/shared"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Format names an output format accepted by [Render].
type Format string

const (
	Table    Format = "table"
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
)

// Formats lists the accepted formats in help order.
func Formats() []string {
	return []string{string(Table), string(JSON), string(CSV), string(Markdown), string(Text)}
}

// ParseFormat maps a flag value to a [Format]. The empty string selects [Table].
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Table, nil
	case Table, JSON, CSV, Markdown, Text:
		return f, nil
	case "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, s, strings.Join(Formats(), ", "))
	}
}

// Render writes items to w in format f under title.
func Render(w io.Writer, f Format, title string, items []models.Item) error {
	var (
		data []byte
		err  error
	)
	switch f {
	case Table, "":
		data = []byte(ItemsTable(title, items))
	case JSON:
		data, err = ExportToJSON(items)
	case CSV:
		data, err = ExportToCSV(items)
	case Markdown:
		data, err = ExportToMarkdown(title, items)
	case Text:
		data, err = ExportToText(title, items)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ItemsTable renders items as a rounded table with a total footer.
func ItemsTable(title string, items []models.Item) string {
	t := table.NewWriter()
	if title != "" {
		t.SetTitle(title)
	}
	t.AppendHeader(table.Row{"#", "Title", "Subtitle", "Duration", "Liked", "ID"})

	for i, it := range items {
		t.AppendRow(table.Row{i + 1, it.Title, it.Subtitle, durationCell(it.Duration), likedCell(it.Liked), it.ID})
	}

	t.AppendFooter(table.Row{"", "Total", len(items)})
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 6, Colors: text.Colors{text.FgHiBlack}},
	})
	return t.Render() + "\n"
}

// SessionTable renders the session snapshot. Tokens are never printed.
func SessionTable(info models.SessionInfo) string {
	t := table.NewWriter()
	t.SetTitle("Session")
	user := "-"
	if info.UserID != 0 {
		user = strconv.FormatInt(info.UserID, 10)
	}
	t.AppendRows([]table.Row{
		{"State", info.State.String()},
		{"User", user},
		{"Country", info.CountryCode},
		{"Quality", string(info.Quality)},
	})
	t.SetStyle(table.StyleRounded)
	return t.Render() + "\n"
}

// ExportToJSON encodes items as an indented JSON array.
func ExportToJSON(items []models.Item) ([]byte, error) {
	if items == nil {
		items = []models.Item{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV converts items to CSV with columns: ID, Kind, Title, Subtitle, Duration, Liked, Artwork, URL
func ExportToCSV(items []models.Item) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Kind", "Title", "Subtitle", "Duration", "Liked", "Artwork", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, it := range items {
		record := []string{
			it.ID,
			string(it.Kind),
			it.Title,
			it.Subtitle,
			optional(it.Duration, func(d int64) string { return strconv.FormatInt(d, 10) }),
			optional(it.Liked, strconv.FormatBool),
			it.Artwork,
			it.URL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts items to a Markdown list headed by title
func ExportToMarkdown(title string, items []models.Item) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", title)
	}
	fmt.Fprintf(&buf, "**Items**: %d\n\n", len(items))

	for i, it := range items {
		line := it.Title
		if it.URL != "" {
			line = fmt.Sprintf("[%s](%s)", it.Title, it.URL)
		}
		if it.Subtitle != "" {
			line = fmt.Sprintf("%s - %s", it.Subtitle, line)
		}
		if it.Duration != nil {
			line += fmt.Sprintf(" [%s]", FormatDuration(*it.Duration))
		}
		if it.Liked != nil && *it.Liked {
			line += " ♥"
		}
		fmt.Fprintf(&buf, "%d. %s\n", i+1, line)
	}

	return buf.Bytes(), nil
}

// ExportToText converts items to plain text format
func ExportToText(title string, items []models.Item) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "%s\n", title)
	}
	fmt.Fprintf(&buf, "Items: %d\n\n", len(items))

	for i, it := range items {
		if it.Subtitle != "" {
			fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, it.Subtitle, it.Title)
		} else {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, it.Title)
		}
	}

	return buf.Bytes(), nil
}

// WriteExport renders items in format f to the file at path.
func WriteExport(path string, f Format, title string, items []models.Item) error {
	var buf bytes.Buffer
	if err := Render(&buf, f, title, items); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// FormatDuration formats seconds as m:ss, or h:mm:ss from an hour up.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func durationCell(d *int64) string {
	if d == nil {
		return ""
	}
	return FormatDuration(*d)
}

func likedCell(liked *bool) string {
	if liked != nil && *liked {
		return "♥"
	}
	return ""
}

func optional[T any](v *T, f func(T) string) string {
	if v == nil {
		return ""
	}
	return f(*v)
}
