package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
)

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show persistence server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.client().Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status:       %s\n", st.Status)
			fmt.Fprintf(out, "Server time:  %s\n", st.ServerTime)
			fmt.Fprintf(out, "Project root: %s\n", st.ProjectRoot)

			names := make([]string, 0, len(st.Directories))
			for name := range st.Directories {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				d := st.Directories[name]
				fmt.Fprintf(out, "  %-5s %s (exists=%t writable=%t)\n", name, d.Path, d.Exists, d.Writable)
			}
			if st.DocumentURL != "" {
				fmt.Fprintf(out, "Document:     %s\n", st.DocumentURL)
			}
			if st.Mirror != nil {
				fmt.Fprintf(out, "Mirror bucket: %s (reachable=%t)\n", st.Mirror.Bucket, st.Mirror.Reachable)
			}
			if st.Events != nil {
				fmt.Fprintf(out, "Events:       %s (connected=%t)\n", st.Events.Sink, st.Events.Connected)
			}
			return nil
		},
	}
}

func newUploadCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload an image to the server's image directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			s, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			up, err := s.uploader.Upload(cmd.Context(), filepath.Base(args[0]), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to %s\n", up.Filename, up.Path)
			return nil
		},
	}
}

func newContactCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "contact ID",
		Short: "Show the reporting contact for a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			p, ok := s.state.FindByString(args[0])
			if !ok {
				return fmt.Errorf("no person with id %q", args[0])
			}
			printContact(cmd.OutOrStdout(), p)
			return nil
		},
	}
}
