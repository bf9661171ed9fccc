package services

import (
	"context"
	"log/slog"

	"publication-system/repositories"
)

// userCleaner deletes a user with everything they own. Files go first; a
// file that cannot be removed is logged and left behind.
type userCleaner struct {
	users        repositories.UserRepository
	publications repositories.PublicationRepository
	files        FileStore
	logger       *slog.Logger
}

func (c *userCleaner) remove(ctx context.Context, userID uint) error {
	publications, err := c.publications.ListByAuthor(ctx, userID)
	if err != nil {
		return err
	}
	for _, p := range publications {
		if p.Path() == "" {
			continue
		}
		if err := c.files.Delete(ctx, p.Path()); err != nil {
			c.logger.WarnContext(ctx, "could not delete publication file",
				"publication_id", p.ID,
				"pdf_path", p.Path(),
				"error", err,
			)
		}
	}
	if err := c.users.Delete(ctx, userID); err != nil {
		return notFound(err, "User not found")
	}
	c.logger.InfoContext(ctx, "user deleted", "user_id", userID, "publications", len(publications))
	return nil
}
