package v1

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/forptiter/study-assistant/app/core"
	"github.com/forptiter/study-assistant/pkg/chatapi"
	"github.com/forptiter/study-assistant/pkg/errors"
	"github.com/forptiter/study-assistant/pkg/i18n"
	"github.com/forptiter/study-assistant/pkg/types"
	"github.com/forptiter/study-assistant/pkg/utils"
)

const (
	UPLOAD_TARGET_CHAT  = "chat"
	UPLOAD_TARGET_SPACE = "space"
)

var mimeLabels = map[string]string{
	types.MIME_PDF:  "PDF",
	types.MIME_DOC:  "DOC",
	types.MIME_DOCX: "DOCX",
}

// UploadSource is a file to forward to the chat backend, read lazily.
type UploadSource struct {
	Name     string
	MimeType string
	Size     int64
	Open     func(ctx context.Context) (io.ReadCloser, error)
}

func LocalUploadSource(path string) (UploadSource, error) {
	info, err := utils.GetFileInfo(path)
	if err != nil {
		return UploadSource{}, err
	}
	return UploadSource{
		Name:     info.Name,
		MimeType: info.ContentType,
		Size:     info.Size,
		Open: func(context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FileFailure names the file a batch step failed on.
type FileFailure struct {
	Name string
	// Message is already localized for display.
	Message string
	Err     error
}

func (f FileFailure) Error() string {
	return f.Message
}

func (f FileFailure) Unwrap() error {
	return f.Err
}

type UploadReport struct {
	Uploaded []types.UserFile
	Failed   []FileFailure
}

type UploadLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewUploadLogic(ctx context.Context, core *core.Core) *UploadLogic {
	return &UploadLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx),
	}
}

// ValidateFile checks the type against allowed and the size against the upload limit.
func (l *UploadLogic) ValidateFile(name, mimeType string, size int64, allowed []string) error {
	if !lo.Contains(allowed, mimeType) {
		labels := lo.Map(allowed, func(m string, _ int) string { return mimeLabels[m] })
		return errors.New("UploadLogic.ValidateFile.type", i18n.ERROR_FILE_TYPE_UNSUPPORTED, nil).
			Kind(errors.KindPartialFile).
			WithData(map[string]interface{}{"Name": name, "Types": strings.Join(labels, ", ")})
	}
	if limit := l.core.Cfg().Chat.MaxUploadBytes; size > limit {
		return errors.New("UploadLogic.ValidateFile.size", i18n.ERROR_FILE_TOO_LARGE, nil).
			Kind(errors.KindPartialFile).
			WithData(map[string]interface{}{"Name": name, "Limit": utils.HumanSize(limit)})
	}
	return nil
}

func (l *UploadLogic) failure(name string, err error) FileFailure {
	f := FileFailure{Name: name, Err: err}
	var ce *errors.CustomizedError
	if errors.As(err, &ce) && ce.Data() != nil {
		f.Message = l.core.Text(ce.Message(), ce.Data())
	} else {
		f.Message = l.core.Text(i18n.ERROR_FILE_UPLOAD_FAILED, map[string]interface{}{"Name": name})
	}
	return f
}

// Upload validates and forwards one file. spaceID is empty for files attached to a chat.
func (l *UploadLogic) Upload(spaceID string, allowed []string, src UploadSource) (*types.UserFile, error) {
	target := lo.Ternary(spaceID == "", UPLOAD_TARGET_CHAT, UPLOAD_TARGET_SPACE)
	user := l.GetUserInfo()
	if user.ID == "" {
		return nil, errors.New("UploadLogic.Upload.user", i18n.ERROR_UNAUTHORIZED, nil).Kind(errors.KindInvalidArgument)
	}

	if err := l.ValidateFile(src.Name, src.MimeType, src.Size, allowed); err != nil {
		l.core.Metrics().UploadInc(target, "rejected")
		return nil, err
	}

	body, err := src.Open(l.ctx)
	if err != nil {
		l.core.Metrics().UploadInc(target, "failed")
		var ce *errors.CustomizedError
		if errors.As(err, &ce) {
			return nil, errors.Trace("UploadLogic.Upload.Open", err)
		}
		return nil, errors.New("UploadLogic.Upload.Open", i18n.ERROR_FILE_READ_FAILED, err).
			Kind(errors.KindPartialFile).
			WithData(map[string]interface{}{"Name": src.Name})
	}
	defer body.Close()

	res, err := l.core.ChatAPI().UploadFile(l.ctx, chatapi.UploadFileArgs{
		UserID:   user.ID,
		SpaceID:  spaceID,
		Filename: src.Name,
		Body:     body,
	})
	if err != nil {
		l.core.Metrics().UploadInc(target, "failed")
		return nil, errors.New("UploadLogic.Upload.ChatAPI.UploadFile", i18n.ERROR_FILE_UPLOAD_FAILED, err).
			Kind(errors.KindPartialFile).
			WithData(map[string]interface{}{"Name": src.Name})
	}

	l.core.Metrics().UploadInc(target, "ok")
	return &types.UserFile{
		ID:        res.FileID,
		UserID:    user.ID,
		SpaceID:   spaceID,
		Filename:  res.Filename,
		CreatedAt: time.Now(),
	}, nil
}

// UploadFiles uploads one file at a time. A failed file is reported and skipped;
// files uploaded before it stay uploaded.
func (l *UploadLogic) UploadFiles(spaceID string, allowed []string, sources []UploadSource) UploadReport {
	var report UploadReport
	for _, src := range sources {
		file, err := l.Upload(spaceID, allowed, src)
		if err != nil {
			slog.Warn("file upload failed", slog.String("user_id", l.GetUserInfo().ID),
				slog.String("file", src.Name), slog.String("error", err.Error()))
			report.Failed = append(report.Failed, l.failure(src.Name, err))
			continue
		}
		report.Uploaded = append(report.Uploaded, *file)
	}
	return report
}
