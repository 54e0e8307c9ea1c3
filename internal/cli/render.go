package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/your-org/reconnect/internal/models"
	"github.com/your-org/reconnect/internal/registry"
)

func printCard(w io.Writer, p models.PersonRecord) {
	fmt.Fprintf(w, "[%s] %s, %d, %s\n", p.ID, p.Name, p.Age, p.Category.DisplayName())
	fmt.Fprintf(w, "    Last seen: %s\n", p.Location)
	fmt.Fprintf(w, "    Reported:  %s\n", p.DateReported)
	if p.Description != "" {
		fmt.Fprintf(w, "    %s\n", p.Description)
	}
	fmt.Fprintf(w, "    Photo:     %s\n", displayPhoto(p.PhotoURL))
}

func displayPhoto(url string) string {
	if url == "" {
		return models.PlaceholderPhoto
	}
	if strings.HasPrefix(url, "data:") {
		return "(embedded image)"
	}
	return url
}

func printPage(w io.Writer, page registry.Page[models.PersonRecord]) {
	if page.Total == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}
	for _, p := range page.Items {
		printCard(w, p)
	}
	fmt.Fprintf(w, "\n%s (%d results)\n", page.Label(), page.Total)
	if page.HasPrev() {
		fmt.Fprintf(w, "Previous: --page %d\n", page.PageIndex-1)
	}
	if page.HasNext() {
		fmt.Fprintf(w, "Next: --page %d\n", page.PageIndex+1)
	}
}

func printContact(w io.Writer, p models.PersonRecord) {
	fmt.Fprintf(w, "Contact for %s [%s]\n", p.Name, p.ID)
	fmt.Fprintf(w, "  Name:  %s\n", p.ContactInfo.Name)
	fmt.Fprintf(w, "  Email: %s\n", p.ContactInfo.Email)
	fmt.Fprintf(w, "  Phone: %s\n", p.ContactInfo.Phone)
	if p.AdditionalDetails != "" {
		fmt.Fprintf(w, "  Details: %s\n", p.AdditionalDetails)
	}
}
