package drive

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/forptiter/study-assistant/pkg/types"
)

const fileFields = "id,name,mimeType,size,createdTime,modifiedTime"

// PickableMimeTypes are listed by ListPickable.
var PickableMimeTypes = []string{
	types.MIME_PDF,
	types.MIME_DOCX,
	types.MIME_DOC,
	types.MIME_GOOGLE_DOC,
}

type FileInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	CreatedTime  string `json:"createdTime"`
	ModifiedTime string `json:"modifiedTime"`
}

func (f FileInfo) IsGoogleDoc() bool {
	return f.MimeType == types.MIME_GOOGLE_DOC
}

// DownloadedFile is a file body ready to be forwarded. Google Docs arrive as DOCX.
type DownloadedFile struct {
	Name     string
	MimeType string
	Body     io.ReadCloser
}

type Client struct {
	svc     *gdrive.Service
	limiter *rate.Limiter
}

// NewClient builds a Drive client authorized by ts, pacing calls at rps requests per second.
func NewClient(ctx context.Context, ts oauth2.TokenSource, rps float64) (*Client, error) {
	return NewClientWithOptions(ctx, rps, option.WithTokenSource(ts))
}

func NewClientWithOptions(ctx context.Context, rps float64, opts ...option.ClientOption) (*Client, error) {
	svc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		svc:     svc,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

func toFileInfo(f *gdrive.File) FileInfo {
	return FileInfo{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		Size:         f.Size,
		CreatedTime:  f.CreatedTime,
		ModifiedTime: f.ModifiedTime,
	}
}

func pickableQuery() string {
	conds := make([]string, 0, len(PickableMimeTypes))
	for _, m := range PickableMimeTypes {
		conds = append(conds, fmt.Sprintf("mimeType = '%s'", m))
	}
	return "trashed = false and (" + strings.Join(conds, " or ") + ")"
}

// ListPickable lists the most recently modified documents the user can import.
func (c *Client) ListPickable(ctx context.Context, pageSize int64) ([]FileInfo, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, err := c.svc.Files.List().
		Q(pickableQuery()).
		PageSize(pageSize).
		OrderBy("modifiedTime desc").
		Fields("files(" + fileFields + ")").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list drive files: %w", err)
	}

	list := make([]FileInfo, 0, len(res.Files))
	for _, f := range res.Files {
		list = append(list, toFileInfo(f))
	}
	return list, nil
}

func (c *Client) GetFileInfo(ctx context.Context, fileID string) (*FileInfo, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	f, err := c.svc.Files.Get(fileID).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get drive file info: %w", err)
	}
	info := toFileInfo(f)
	return &info, nil
}

// Download fetches the file content. Google Docs are exported as DOCX and the
// name gets a .docx extension.
func (c *Client) Download(ctx context.Context, info FileInfo) (*DownloadedFile, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if info.IsGoogleDoc() {
		resp, err := c.svc.Files.Export(info.ID, types.MIME_DOCX).Context(ctx).Download()
		if err != nil {
			return nil, fmt.Errorf("failed to export google doc: %w", err)
		}
		return &DownloadedFile{
			Name:     DocxName(info.Name),
			MimeType: types.MIME_DOCX,
			Body:     resp.Body,
		}, nil
	}

	resp, err := c.svc.Files.Get(info.ID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download drive file: %w", err)
	}
	mimeType := info.MimeType
	if mimeType == "" {
		mimeType = types.MIME_OCTET
	}
	return &DownloadedFile{
		Name:     info.Name,
		MimeType: mimeType,
		Body:     resp.Body,
	}, nil
}

// DocxName replaces any extension of name with .docx.
func DocxName(name string) string {
	ext := path.Ext(name)
	if ext != "" && !strings.ContainsAny(ext, " ") {
		name = strings.TrimSuffix(name, ext)
	}
	return name + ".docx"
}
