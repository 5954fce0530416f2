package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/calvinalkan/probcat/internal/catalog"
)

// formatEntryLine renders one listing line:
//
//	  3. USAMO 2000/6 [alg 7] Fiendish inequality
func formatEntryLine(entry catalog.Entry, order catalog.Ordering) string {
	var b strings.Builder

	if n, ok := entry.Number(); ok {
		fmt.Fprintf(&b, "%3d. ", n)
	} else {
		b.WriteString("   - ")
	}

	b.WriteString(entry.Source)
	b.WriteString(" [")
	b.WriteString(order.BucketName(entry))

	if entry.Hardness != nil {
		b.WriteString(" ")
		b.WriteString(strconv.Itoa(*entry.Hardness))
	}

	b.WriteString("]")

	if entry.Description != "" {
		b.WriteString(" ")
		b.WriteString(entry.Description)
	}

	return b.String()
}

func printEntries(o *IO, entries []catalog.Entry, order catalog.Ordering, showSecret bool) {
	hidden := 0

	for _, entry := range entries {
		if entry.IsSecret() && !showSecret {
			hidden++

			continue
		}

		o.Println(formatEntryLine(entry, order))
	}

	if hidden > 0 {
		o.Printf("(%d secret entries hidden)\n", hidden)
	}
}

func printDocument(o *IO, doc catalog.Document, allBodies bool) {
	o.Println("source:", doc.Source)

	if doc.Description != "" {
		o.Println("desc:", doc.Description)
	}

	if doc.Author != nil {
		o.Println("author:", *doc.Author)
	}

	if doc.URL != nil {
		o.Println("url:", *doc.URL)
	}

	if doc.Hardness != nil {
		o.Println("hardness:", *doc.Hardness)
	}

	if len(doc.Tags) > 0 {
		o.Println("tags:", strings.Join(doc.Tags, ", "))
	}

	o.Println("path:", doc.Path)

	bodies := doc.Bodies
	if !allBodies && len(bodies) > 1 {
		bodies = bodies[:1]
	}

	for _, body := range bodies {
		o.Println()
		o.Println(body)
	}
}
