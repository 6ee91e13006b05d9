package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quest-ui/internal/detail"
	"quest-ui/internal/gallery"
	"quest-ui/internal/media"
	"quest-ui/internal/questapi"
)

// questctl show ID
func (c *cli) showCmd() *cobra.Command {
	var (
		readOnly bool
		viewerID string
		admin    bool
	)
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a submission with its likes, replies and the controls you would get",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if viewerID == "" {
				viewerID = c.cfg.Viewer.UserID
			}
			if !cmd.Flags().Changed("admin") {
				admin = c.cfg.Viewer.Admin
			}
			view := &textView{}
			ctrl, err := detail.New(detail.Options{
				API:              c.client,
				View:             view,
				Modal:            nopModal{},
				Session:          detail.StaticSession{UserID: viewerID, Admin: fmt.Sprint(admin)},
				Logger:           c.logger,
				Limits:           c.limits(),
				MaxReplies:       c.cfg.Media.MaxReplies,
				PlaceholderImage: c.cfg.Media.PlaceholderImage,
			})
			if err != nil {
				return err
			}
			defer ctrl.Dispose()

			if err := ctrl.Show(detail.SubmissionView{
				Item:     c.itemFromFlags(cmd, args[0]),
				ReadOnly: readOnly,
			}); err != nil {
				return err
			}
			ctrl.Wait()
			printModel(c.out, view.Model())
			return nil
		},
	}
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Render as a read-only view (no likes or replies)")
	cmd.Flags().StringVar(&viewerID, "viewer", "", "User id to evaluate ownership for")
	cmd.Flags().BoolVar(&admin, "admin", false, "Evaluate controls as an admin")
	cmd.Flags().String("owner", "", "Submission owner's user id, when known")
	cmd.Flags().String("image", "", "Image URL, when known")
	cmd.Flags().String("video", "", "Video URL, when known")
	cmd.Flags().String("comment", "", "Comment text, when known")
	return cmd
}

// itemFromFlags fills the fields the thumbnail renderer would normally pass.
func (c *cli) itemFromFlags(cmd *cobra.Command, id string) gallery.Item {
	owner, _ := cmd.Flags().GetString("owner")
	image, _ := cmd.Flags().GetString("image")
	video, _ := cmd.Flags().GetString("video")
	comment, _ := cmd.Flags().GetString("comment")
	return gallery.Item{ID: id, UserID: owner, URL: image, VideoURL: video, Comment: comment}
}

// questctl replies ID
func (c *cli) repliesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replies ID",
		Short: "List the replies to a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			replies, err := c.client.Replies(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(replies) == 0 {
				c.printf("No replies.\n")
				return nil
			}
			for _, r := range replies {
				c.printf("%s: %s\n", r.UserDisplay, r.Content)
			}
			return nil
		},
	}
}

// questctl like ID
func (c *cli) likeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like ID",
		Short: "Like a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.client.Like(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c.printLike(result)
			return nil
		},
	}
}

// questctl unlike ID
func (c *cli) unlikeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlike ID",
		Short: "Remove your like from a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.client.Unlike(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c.printLike(result)
			return nil
		},
	}
}

func (c *cli) printLike(result questapi.LikeResult) {
	state := "not liked"
	if result.Liked {
		state = "liked"
	}
	c.printf("%s (%d likes)\n", state, result.LikeCount)
}

// questctl reply ID TEXT...
func (c *cli) replyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reply ID TEXT...",
		Short: "Post a reply to a submission",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.TrimSpace(strings.Join(args[1:], " "))
			if content == "" {
				return errors.New("reply text is empty")
			}
			outcome := c.client.PostReply(cmd.Context(), args[0], content)
			switch outcome.Kind {
			case questapi.ReplyPosted:
				c.printf("Posted: %s\n", outcome.Reply.Content)
				return nil
			case questapi.ReplyLimitReached:
				return errors.New(detail.ReplyLimitNotice)
			case questapi.ReplyDuplicate:
				return errors.New(detail.DuplicateReplyNotice)
			default:
				return fmt.Errorf("post reply: %s", questapi.UserMessage(outcome.Err, "request failed"))
			}
		},
	}
}

// questctl comment ID TEXT...
func (c *cli) commentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment ID [TEXT...]",
		Short: "Replace the comment on your submission; no text clears it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args[1:], " "))
			result, err := c.client.UpdateComment(cmd.Context(), args[0], text)
			if err != nil {
				return err
			}
			comment := strings.TrimSpace(result.Comment)
			if comment == "" {
				comment = detail.NoCommentText
			}
			c.printf("Comment: %s\n", comment)
			return nil
		},
	}
}

// questctl photo ID FILE
func (c *cli) photoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "photo ID FILE",
		Short: "Replace the photo or video of your submission",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := localFile(args[1])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			if err := media.Validate(ctx, file, c.limits(), media.FileProber{}); err != nil {
				return errors.New(media.Message(err, c.limits()))
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}
			result, err := c.client.UpdateMedia(ctx, args[0], questapi.Upload{
				Field:       file.FieldName(),
				FileName:    file.Name,
				ContentType: file.ContentType,
				Body:        data,
			})
			if err != nil {
				return err
			}
			if result.VideoURL != "" {
				c.printf("Video: %s\n", result.VideoURL)
			}
			if result.ImageURL != "" {
				c.printf("Image: %s\n", result.ImageURL)
			}
			return nil
		},
	}
}

// localFile describes path the way a browser file input would.
func localFile(path string) (media.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return media.File{}, err
	}
	if info.IsDir() {
		return media.File{}, fmt.Errorf("%s is a directory", path)
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		head := make([]byte, 512)
		f, err := os.Open(path)
		if err != nil {
			return media.File{}, err
		}
		n, _ := f.Read(head)
		f.Close()
		contentType = http.DetectContentType(head[:n])
	}
	return media.File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
		Handle:      path,
	}, nil
}

// questctl delete ID
func (c *cli) deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a submission you own (or any, as an admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !c.confirm(detail.ConfirmDeletePrompt) {
				c.printf("Cancelled.\n")
				return nil
			}
			if err := c.client.DeleteSubmission(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.printf("%s\n", detail.DeletedNotice)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func (c *cli) confirm(prompt string) bool {
	c.printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (c *cli) limits() media.Limits {
	return media.LimitsFrom(c.cfg.Media.MaxImageMB, c.cfg.Media.MaxVideoMB, c.cfg.Media.MaxVideoSeconds)
}
