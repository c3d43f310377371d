package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"invtracker/internal/catalog"
	"invtracker/internal/inventory"
)

// DefaultMaxLength is the message size limit of the notification channel, in runes.
const DefaultMaxLength = 2000

const (
	ContinuedMarker = "(continued)"
	NoChangesLine   = "✅ No inventory changes detected."
	NoticeLine      = "• ❌ Could not check this SKU."
)

// Group is everything found for one product at a location during a run.
type Group struct {
	Product catalog.Product
	Changes []inventory.ChangeRecord
	// Err is set when the product could not be fetched, it is rendered as a
	// notice line in place of changes.
	Err error
}

func (g Group) reportable() bool {
	return len(g.Changes) > 0 || g.Err != nil
}

// HasChanges reports whether any group has something to report.
func HasChanges(groups []Group) bool {
	for _, g := range groups {
		if g.reportable() {
			return true
		}
	}
	return false
}

func Title(location string) string {
	return fmt.Sprintf("**📋 Inventory Update (%s):**", location)
}

func GroupHeader(p catalog.Product) string {
	return fmt.Sprintf("📢 **%s** (%s):", p.Name, p.SKU)
}

// FormatChange renders a single change record as a line.
func FormatChange(c inventory.ChangeRecord) string {
	return fmt.Sprintf(
		"• 🔔 **%s** at **%s** changed: %s → %d",
		c.DisplayName, c.Store, c.Old.String(), c.New,
	)
}

func RollCallLine(p catalog.Product) string {
	return fmt.Sprintf("- %s (%s)", p.Name, p.SKU)
}

// Composer turns the groups of a location into messages of at most MaxLength
// runes each.
type Composer struct {
	MaxLength int
}

func (c Composer) maxLength() int {
	if c.MaxLength <= 0 {
		return DefaultMaxLength
	}
	return c.MaxLength
}

// Compose renders the report of a location. When no group has anything to
// report, the report is a roll call of every product in rollCall.
//
// Lines are never split across messages. A message only exceeds MaxLength
// when a single line (with its group header) is longer than that on its own.
func (c Composer) Compose(location string, groups []Group, rollCall []catalog.Product) []string {
	p := newPacker(c.maxLength(), Title(location))

	if !HasChanges(groups) {
		lines := make([]string, 0, len(rollCall)+1)
		lines = append(lines, NoChangesLine)
		for _, product := range rollCall {
			lines = append(lines, RollCallLine(product))
		}
		p.section("", lines)
		return p.finish()
	}

	for _, g := range groups {
		if !g.reportable() {
			continue
		}
		var lines []string
		if g.Err != nil {
			lines = append(lines, NoticeLine)
		}
		for _, change := range g.Changes {
			lines = append(lines, FormatChange(change))
		}
		p.section(GroupHeader(g.Product), lines)
	}
	return p.finish()
}

// packer greedily packs lines into chunks.
type packer struct {
	max    int
	chunks []string

	lines   []string
	size    int
	content int
}

func newPacker(max int, title string) *packer {
	p := &packer{max: max}
	p.push(title)
	return p
}

func runes(s string) int {
	return utf8.RuneCountInString(s)
}

func (p *packer) push(line string) {
	if len(p.lines) > 0 {
		p.size++
	}
	p.lines = append(p.lines, line)
	p.size += runes(line)
}

func (p *packer) fits(piece []string) bool {
	size := p.size
	for _, line := range piece {
		size += runes(line) + 1
	}
	return size <= p.max
}

func (p *packer) flush() {
	if p.content > 0 {
		p.chunks = append(p.chunks, strings.Join(p.lines, "\n"))
	}
	p.lines = nil
	p.size = 0
	p.content = 0
	p.push(ContinuedMarker)
}

// section appends a header followed by lines, the header is written again at
// the top of a chunk when the section is split.
func (p *packer) section(header string, lines []string) {
	headerWritten := false
	for _, line := range lines {
		piece := []string{line}
		if !headerWritten && header != "" {
			piece = []string{header, line}
		}

		if p.content > 0 && !p.fits(piece) {
			p.flush()
			if header != "" {
				piece = []string{header, line}
			}
		}

		for _, l := range piece {
			p.push(l)
		}
		p.content++
		headerWritten = true
	}
}

func (p *packer) finish() []string {
	if p.content > 0 {
		p.chunks = append(p.chunks, strings.Join(p.lines, "\n"))
	}
	return p.chunks
}
