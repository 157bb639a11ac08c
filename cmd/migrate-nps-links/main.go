// Command migrate-nps-links converts the legacy TypeScript link table into
// the structured JSON store the pipeline reads. One-time migration: the
// regex parsing of program text lives here and nowhere else.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
)

type link struct {
	ParkCode  string `json:"parkCode"`
	ParkName  string `json:"parkName"`
	StateCode string `json:"stateCode"`
	URL       string `json:"url"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

var (
	objectRe = regexp.MustCompile(`\{[^{}]*\}`)
	fieldRe  = regexp.MustCompile(`(\w+)\s*:\s*['"` + "`" + `]([^'"` + "`" + `]*)['"` + "`" + `]`)
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: migrate-nps-links <legacy-ts-file> <output-json>")
		fmt.Println("Example: migrate-nps-links npsLinks.ts data/nps_links.json")
		os.Exit(1)
	}

	source, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	var links []link
	skipped := 0
	for _, obj := range objectRe.FindAllString(string(source), -1) {
		fields := map[string]string{}
		for _, m := range fieldRe.FindAllStringSubmatch(obj, -1) {
			fields[m[1]] = m[2]
		}

		l := link{
			ParkCode:  fields["parkCode"],
			ParkName:  firstOf(fields, "parkName", "name"),
			StateCode: firstOf(fields, "stateCode", "state"),
			URL:       fields["url"],
			ImageURL:  firstOf(fields, "imageUrl", "image"),
		}
		if l.ParkName == "" || l.URL == "" {
			skipped++
			continue
		}
		links = append(links, l)
	}

	sort.Slice(links, func(i, j int) bool {
		if links[i].StateCode != links[j].StateCode {
			return links[i].StateCode < links[j].StateCode
		}
		return links[i].ParkName < links[j].ParkName
	})

	out, err := json.MarshalIndent(links, "", "  ")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(os.Args[2], append(out, '\n'), 0644); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Migrated %d link records (%d skipped)\n", len(links), skipped)
	fmt.Printf("   Output: %s\n", os.Args[2])
}

func firstOf(fields map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := fields[k]; v != "" {
			return v
		}
	}
	return ""
}
