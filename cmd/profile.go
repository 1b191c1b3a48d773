package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jobease/jobfill/pkg/attach"
	"github.com/jobease/jobfill/pkg/profile"
	"github.com/jobease/jobfill/pkg/storage"
	"github.com/spf13/cobra"
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the stored profile",
}

var profileImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a profile exported from the web app",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		p, err := profile.Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		db, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		if err := profile.Save(context.Background(), db, p); err != nil {
			return err
		}
		fmt.Printf("Imported profile for %s\n", p.FullName())
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		p, err := profile.Load(context.Background(), db)
		if errors.Is(err, profile.ErrNoProfile) {
			fmt.Println("No profile stored. Import one with: jobfill profile import <file>")
			return nil
		}
		if err != nil {
			return err
		}
		full, _ := cmd.Flags().GetBool("attachments")
		if !full {
			p.ResumeData = elide(p.ResumeData)
			p.CoverData = elide(p.CoverData)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

var profileAttachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Store a resume and/or cover letter in the profile",
	Example: `  jobfill profile attach --resume ~/cv.pdf
  jobfill profile attach --cover letter.pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resume, _ := cmd.Flags().GetString("resume")
		cover, _ := cmd.Flags().GetString("cover")
		if resume == "" && cover == "" {
			return fmt.Errorf("give --resume and/or --cover")
		}

		db, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		ctx := context.Background()
		p, err := profile.Load(ctx, db)
		if errors.Is(err, profile.ErrNoProfile) {
			p = &profile.Profile{}
		} else if err != nil {
			return err
		}

		if resume != "" {
			if p.ResumeName, p.ResumeData, err = readAttachment(resume); err != nil {
				return err
			}
		}
		if cover != "" {
			if p.CoverName, p.CoverData, err = readAttachment(cover); err != nil {
				return err
			}
		}
		return profile.Save(ctx, db, p)
	},
}

// readAttachment loads path as a data URL.
func readAttachment(path string) (name, dataURL string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return filepath.Base(path), attach.EncodeDataURL(mimeType, data), nil
}

var profileClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the stored profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()
		return db.Remove(context.Background(), storage.KeyProfile)
	},
}

func elide(dataURL string) string {
	if len(dataURL) <= 48 {
		return dataURL
	}
	return fmt.Sprintf("%s... (%d bytes)", dataURL[:48], len(dataURL))
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileImportCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileAttachCmd)
	profileCmd.AddCommand(profileClearCmd)
	profileShowCmd.Flags().Bool("attachments", false, "Print attachment data URLs in full")
	profileAttachCmd.Flags().String("resume", "", "Resume file")
	profileAttachCmd.Flags().String("cover", "", "Cover letter file")
}
