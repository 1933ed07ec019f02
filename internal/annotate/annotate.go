package annotate

import (
	"encoding/json"
	"fmt"

	"golang.org/x/sys/unix"

	"curator/internal/config"
	"curator/internal/services"
)

const (
	xattrTags    = "user.curator.tags"
	xattrComment = "user.curator.comment"
)

// Annotator attaches classification metadata to organized files.
type Annotator interface {
	AddTags(path string, tags []string) error
	AddComment(path, text string) error
}

// NewFromConfig returns an xattr-backed annotator, or a no-op one when
// annotation is disabled.
func NewFromConfig(cfg *config.Config) Annotator {
	if cfg == nil || !cfg.Annotate.Enabled {
		return Nop{}
	}
	return XAttr{}
}

// XAttr writes metadata into extended attributes on the file itself, so the
// annotations travel with the file across renames within a filesystem.
type XAttr struct{}

// AddTags stores tags as a JSON array under user.curator.tags.
func (XAttr) AddTags(path string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return services.Wrap(services.ErrValidation, "annotate", "add_tags", "encode tags", err)
	}
	if err := unix.Setxattr(path, xattrTags, encoded, 0); err != nil {
		return services.Wrap(services.ErrPathUnavailable, "annotate", "add_tags",
			fmt.Sprintf("set %s on %s", xattrTags, path), err)
	}
	return nil
}

// AddComment stores free-form text under user.curator.comment.
func (XAttr) AddComment(path, text string) error {
	if text == "" {
		return nil
	}
	if err := unix.Setxattr(path, xattrComment, []byte(text), 0); err != nil {
		return services.Wrap(services.ErrPathUnavailable, "annotate", "add_comment",
			fmt.Sprintf("set %s on %s", xattrComment, path), err)
	}
	return nil
}

// ReadTags returns the tags previously attached to path, or nil when the
// attribute is absent.
func ReadTags(path string) ([]string, error) {
	data, err := readXattr(path, xattrTags)
	if err != nil || data == nil {
		return nil, err
	}
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, services.Wrap(services.ErrValidation, "annotate", "read_tags", "decode tags", err)
	}
	return tags, nil
}

// ReadComment returns the comment previously attached to path, or "" when the
// attribute is absent.
func ReadComment(path string) (string, error) {
	data, err := readXattr(path, xattrComment)
	if err != nil || data == nil {
		return "", err
	}
	return string(data), nil
}

func readXattr(path, name string) ([]byte, error) {
	size, err := unix.Getxattr(path, name, nil)
	if err != nil {
		if err == unix.ENODATA {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrPathUnavailable, "annotate", "read",
			fmt.Sprintf("get %s on %s", name, path), err)
	}
	buf := make([]byte, size)
	n, err := unix.Getxattr(path, name, buf)
	if err != nil {
		return nil, services.Wrap(services.ErrPathUnavailable, "annotate", "read",
			fmt.Sprintf("get %s on %s", name, path), err)
	}
	return buf[:n], nil
}

// Nop discards all annotations.
type Nop struct{}

func (Nop) AddTags(string, []string) error  { return nil }
func (Nop) AddComment(string, string) error { return nil }
