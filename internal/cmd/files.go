package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fprochazka/slackcli/internal/timeutil"
)

var (
	fileIDPattern = regexp.MustCompile(`^F[A-Z0-9]+$`)

	// File permalinks come in two shapes: the files.slack.com asset host
	// (team-file pair) and the workspace archive path (user then file).
	filesHostPattern = regexp.MustCompile(`^https://files\.slack\.com/files-pri/([A-Z0-9]+)-([A-Z0-9]+)/`)
	workspacePattern = regexp.MustCompile(`^https://([a-z0-9-]+)\.slack\.com/files/[A-Z0-9]+/([A-Z0-9]+)/`)
)

// parseFileRef extracts a file ID from a raw ID or a Slack file URL.
func parseFileRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if fileIDPattern.MatchString(ref) {
		return ref, nil
	}
	if m := filesHostPattern.FindStringSubmatch(ref); m != nil {
		return m[2], nil
	}
	if m := workspacePattern.FindStringSubmatch(ref); m != nil {
		return m[2], nil
	}
	return "", fmt.Errorf("invalid file reference %q (want a file ID or a slack.com file URL)", ref)
}

// sanitizeFilename strips directory components and traversal sequences so a
// remote-supplied name cannot escape the download directory.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "" || strings.Trim(name, ".") == "" || name == string(filepath.Separator) {
		return "downloaded_file"
	}
	return strings.ReplaceAll(name, "..", "_")
}

func formatSize(size int) string {
	switch {
	case size < 1<<10:
		return fmt.Sprintf("%d B", size)
	case size < 1<<20:
		return fmt.Sprintf("%.1f KB", float64(size)/(1<<10))
	case size < 1<<30:
		return fmt.Sprintf("%.1f MB", float64(size)/(1<<20))
	default:
		return fmt.Sprintf("%.1f GB", float64(size)/(1<<30))
	}
}

func defaultDownloadDir() string {
	return filepath.Join(os.TempDir(), "slackcli")
}

func newFilesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List and download Slack files",
	}
	cmd.AddCommand(newFilesListCmd(a), newFilesInfoCmd(a), newDownloadCmd(a))
	return cmd
}

func newFilesListCmd(a *app) *cobra.Command {
	var (
		channel string
		user    string
		count   int
		page    int
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List files, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.session(); err != nil {
				return err
			}
			channelID := ""
			if channel != "" {
				var err error
				channelID, _, err = a.res.ResolveChannel(a.org.Name, channel)
				if err != nil {
					return err
				}
			}
			userID := ""
			if user != "" {
				var err error
				userID, _, err = a.users.Resolve(cmd.Context(), a.gw, a.org.Name, user)
				if err != nil {
					return err
				}
			}
			files, paging, err := a.gw.ListFiles(cmd.Context(), channelID, userID, count, page)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, files)
			}
			if len(files) == 0 {
				fmt.Fprintln(out, "No files")
				return nil
			}
			uploaders := make([]string, 0, len(files))
			for _, f := range files {
				uploaders = append(uploaders, f.User)
			}
			names := a.users.DisplayNames(cmd.Context(), a.gw, a.org.Name, uploaders)
			for _, f := range files {
				uploader := f.User
				if name := names[f.User]; name != "" {
					uploader = "@" + name
				}
				fmt.Fprintf(out, "%-14s  %s  %-20s %9s  %s\n",
					f.ID, timeutil.HumanTime(int64(f.Created)), uploader, formatSize(f.Size), f.Name)
			}
			if paging != nil && paging.Pages > 1 {
				fmt.Fprintf(out, "\npage %d/%d (%d files total)\n", paging.Page, paging.Pages, paging.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "only files shared in this channel")
	cmd.Flags().StringVar(&user, "user", "", "only files uploaded by this user")
	cmd.Flags().IntVar(&count, "count", 50, "files per page")
	cmd.Flags().IntVar(&page, "page", 1, "result page")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func newFilesInfoCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "info <file-id-or-url>",
		Short: "Show one file's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileID, err := parseFileRef(args[0])
			if err != nil {
				return err
			}
			if err := a.session(); err != nil {
				return err
			}
			file, err := a.gw.FileInfo(cmd.Context(), fileID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, file)
			}
			fmt.Fprintf(out, "ID:       %s\n", file.ID)
			fmt.Fprintf(out, "Name:     %s\n", file.Name)
			fmt.Fprintf(out, "Type:     %s\n", file.Mimetype)
			fmt.Fprintf(out, "Size:     %s\n", formatSize(file.Size))
			fmt.Fprintf(out, "Created:  %s\n", timeutil.HumanTime(int64(file.Created)))
			fmt.Fprintf(out, "Uploader: %s\n", file.User)
			if file.Permalink != "" {
				fmt.Fprintf(out, "Link:     %s\n", file.Permalink)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func newDownloadCmd(a *app) *cobra.Command {
	var (
		output string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "download <file-id-or-url>",
		Short: "Download a file by ID or slack.com URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileID, err := parseFileRef(args[0])
			if err != nil {
				return err
			}
			if err := a.session(); err != nil {
				return err
			}
			file, err := a.gw.FileInfo(cmd.Context(), fileID)
			if err != nil {
				return err
			}
			downloadURL := file.URLPrivateDownload
			if downloadURL == "" {
				downloadURL = file.URLPrivate
			}
			if downloadURL == "" {
				return fmt.Errorf("file %s has no download URL", fileID)
			}

			name := file.Name
			if name == "" {
				name = fileID
			}
			dest := downloadDest(output, sanitizeFilename(name))
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return fmt.Errorf("create download dir: %w", err)
			}

			f, err := os.Create(dest)
			if err != nil {
				return fmt.Errorf("create %s: %w", dest, err)
			}
			if err := a.gw.DownloadFile(cmd.Context(), downloadURL, f); err != nil {
				f.Close()
				os.Remove(dest)
				return fmt.Errorf("download %s: %w", fileID, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("write %s: %w", dest, err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, map[string]interface{}{
					"file_id": fileID,
					"name":    filepath.Base(dest),
					"path":    dest,
					"size":    file.Size,
				})
			}
			fmt.Fprintf(out, "Downloaded: %s (%s)\n", dest, formatSize(file.Size))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path; a directory keeps the original filename (default: "+defaultDownloadDir()+")")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

// downloadDest picks the destination path: the default directory, the given
// directory plus the original name, or the exact path the user asked for.
func downloadDest(output, filename string) string {
	if output == "" {
		return filepath.Join(defaultDownloadDir(), filename)
	}
	if strings.HasSuffix(output, string(filepath.Separator)) {
		return filepath.Join(output, filename)
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, filename)
	}
	return output
}
