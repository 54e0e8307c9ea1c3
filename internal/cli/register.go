package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/your-org/reconnect/internal/models"
)

func newRegisterCommand(opts *options) *cobra.Command {
	var (
		p         models.PersonRecord
		age       string
		category  string
		photoPath string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a person and save the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := models.ParseAge(age)
			if err != nil {
				return err
			}
			cat, err := parseCategory(category, false)
			if err != nil {
				return err
			}
			if cat == "" {
				return fmt.Errorf("--category is required")
			}

			s, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			record := p
			record.ID = models.StringID(NewID())
			record.Age = a
			record.Category = cat
			record.DateReported = time.Now().Format(models.DateLayout)
			if record.Gender == "" {
				record.Gender = models.GenderNotSpecified
			}
			record.PhotoURL = models.PlaceholderPhoto
			if photoPath != "" {
				data, err := os.ReadFile(photoPath)
				if err != nil {
					fmt.Fprintf(out, "Photo not attached: %v\n", err)
				} else {
					record.PhotoURL = s.uploader.PhotoURL(ctx, filepath.Base(photoPath), data)
				}
			}

			done, err := s.state.Append(ctx, record)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Registered %s as %s\n", record.Name, record.ID)

			outcome := <-done
			switch {
			case outcome.Committed():
				fmt.Fprintf(out, "Saved %d persons to %s\n", len(outcome.Document.Persons), outcome.Path)
			case outcome.Recovered:
				fmt.Fprintln(out, "Document copied for manual saving.")
			default:
				fmt.Fprintf(out, "Registry not saved: %v\n", outcome.Err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&p.Name, "name", "n", "", "full name (required)")
	f.StringVarP(&age, "age", "a", "", "age in years (required)")
	f.StringVarP(&p.Gender, "gender", "g", "", "male, female, other or not-specified")
	f.StringVarP(&category, "category", "c", "", "missing, orphaned, homeless or separated (required)")
	f.StringVarP(&p.Description, "description", "d", "", "physical description")
	f.StringVarP(&p.Location, "location", "l", "", "last known location (required)")
	f.StringVar(&p.ContactInfo.Name, "contact-name", "", "reporting contact name (required)")
	f.StringVar(&p.ContactInfo.Email, "contact-email", "", "reporting contact email")
	f.StringVar(&p.ContactInfo.Phone, "contact-phone", "", "reporting contact phone (required)")
	f.StringVar(&p.AdditionalDetails, "details", "", "additional details")
	f.StringVar(&photoPath, "photo", "", "image file to upload")
	for _, name := range []string{"name", "age", "category", "location", "contact-name", "contact-phone"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// NewID returns a fresh record id of the form id_<9 hex digits>.
func NewID() string {
	return "id_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
