package imagekit

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/raflytch/prepwise-server/pkg/validator"

	"github.com/imagekit-developer/imagekit-go/v2"
	"github.com/imagekit-developer/imagekit-go/v2/option"
)

const avatarFolder = "prepwise/avatars"

type Config struct {
	PublicKey   string
	PrivateKey  string
	URLEndpoint string
}

type UploadResult struct {
	URL      string `json:"url"`
	FileID   string `json:"file_id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	FileType string `json:"file_type"`
}

// AvatarUploader stores a validated profile picture and returns where it lives.
type AvatarUploader interface {
	UploadAvatar(ctx context.Context, file *multipart.FileHeader, owner string) (*UploadResult, error)
}

type Client struct {
	ik        imagekit.Client
	validator *validator.FileValidator
	now       func() time.Time
}

func NewClient(config Config) *Client {
	ik := imagekit.NewClient(
		option.WithPrivateKey(config.PrivateKey),
	)

	return &Client{
		ik:        ik,
		validator: validator.ImageValidator(),
		now:       time.Now,
	}
}

func (c *Client) ValidateImage(file *multipart.FileHeader) error {
	return c.validator.Validate(file)
}

// UploadAvatar names the file after its owner so repeated uploads are easy to
// trace in the media library.
func (c *Client) UploadAvatar(ctx context.Context, file *multipart.FileHeader, owner string) (*UploadResult, error) {
	if err := c.ValidateImage(file); err != nil {
		return nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	fileName := fmt.Sprintf("%s_%d%s", owner, c.now().Unix(), ext)

	resp, err := c.ik.Files.Upload(ctx, imagekit.FileUploadParams{
		File:     src,
		FileName: fileName,
		Folder:   imagekit.String(avatarFolder),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file to ImageKit: %w", err)
	}

	return &UploadResult{
		URL:      resp.URL,
		FileID:   resp.FileID,
		Name:     resp.Name,
		Size:     int64(resp.Size),
		FileType: resp.FileType,
	}, nil
}
