// Package publish creates content records, uploading a locally selected
// image first when one is present. The whole operation is sequential and not
// resumable: a validation failure touches nothing remote, an upload failure
// aborts before any record exists, and a record-write failure after a
// successful upload leaves the uploaded object orphaned unless compensation
// is enabled.
package publish

import (
	"context"
	"strings"

	"github.com/framez-app/framez-go/model"
	"github.com/framez-app/framez-go/provider"
	Logger "github.com/framez-app/framez-go/utils/log"
	"github.com/pkg/errors"
)

// Pipeline publishes posts on behalf of the signed-in author.
type Pipeline struct {
	store provider.DocStore
	media MediaStore

	// CompensateOrphans deletes the uploaded object when the record write
	// fails afterwards. Off by default: the orphan is logged as a known
	// limitation, matching the product's current behavior.
	CompensateOrphans bool
}

func NewPipeline(store provider.DocStore, media MediaStore) *Pipeline {
	return &Pipeline{store: store, media: media}
}

// Publish validates, uploads and writes a new content record. At least one
// of image or non-empty trimmed text must be present.
func (p *Pipeline) Publish(ctx context.Context, author *model.User, text string, image *LocalImage) (*model.Post, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" && image == nil {
		return nil, &ValidationError{Reason: "add some content or an image"}
	}
	if len(trimmed) > model.MaxPostTextLen {
		return nil, &ValidationError{Reason: "caption is too long"}
	}
	if author == nil || author.Id == "" {
		return nil, &ValidationError{Reason: "not signed in"}
	}

	imageUrl := ""
	if image != nil {
		url, err := p.media.Upload(ctx, image)
		if err != nil {
			var uploadErr *UploadError
			if errors.As(err, &uploadErr) {
				return nil, err
			}
			return nil, &UploadError{Err: err}
		}
		imageUrl = url
	}

	fields := provider.Document{
		"userId":    author.Id,
		"userName":  author.DisplayName,
		"userPhoto": author.PhotoUrl,
		"text":      trimmed,
		"imageUrl":  imageUrl,
		"timestamp": provider.ServerTimestamp,
		"likes":     []string{},
	}

	id, err := p.store.Create(ctx, provider.CollectionPosts, fields)
	if err != nil {
		p.handleOrphan(ctx, imageUrl)
		return nil, errors.Wrap(err, "failed to write post record")
	}

	doc, getErr := p.store.Get(ctx, provider.CollectionPosts, id)
	if getErr != nil {
		// The record exists; return what we know locally.
		post := model.PostFromDocument(fields)
		post.Id = id
		return post, nil
	}
	return model.PostFromDocument(doc), nil
}

// handleOrphan deals with an uploaded object whose post record never
// materialized.
func (p *Pipeline) handleOrphan(ctx context.Context, imageUrl string) {
	if imageUrl == "" {
		return
	}
	if !p.CompensateOrphans {
		Logger.Log.Warnf("post write failed after upload, object orphaned: %s", imageUrl)
		return
	}
	deleter, ok := p.media.(MediaDeleter)
	if !ok {
		Logger.Log.Warnf("orphan compensation enabled but store cannot delete, object orphaned: %s", imageUrl)
		return
	}
	if err := deleter.Delete(ctx, imageUrl); err != nil {
		Logger.Log.Warnf("failed to delete orphaned object %s: %v", imageUrl, err)
	}
}
