package v1

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forptiter/study-assistant/app/core"
	"github.com/forptiter/study-assistant/pkg/errors"
	"github.com/forptiter/study-assistant/pkg/i18n"
	"github.com/forptiter/study-assistant/pkg/types"
	"github.com/forptiter/study-assistant/pkg/utils"
)

type SpaceLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewSpaceLogic(ctx context.Context, core *core.Core) *SpaceLogic {
	return &SpaceLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx),
	}
}

func validateSpaceField(trace, field string, value string, max int) error {
	if utils.RuneLen(value) > max {
		return errors.New(trace, i18n.ERROR_SPACE_FIELD_TOO_LONG, nil).
			Kind(errors.KindInvalidArgument).
			WithData(map[string]interface{}{"Field": field, "Max": max})
	}
	return nil
}

func ValidateSpace(args types.UpdateSpaceArgs) error {
	if strings.TrimSpace(args.Name) == "" {
		return errors.New("ValidateSpace.name", i18n.ERROR_SPACE_NAME_REQUIRED, nil).Kind(errors.KindInvalidArgument)
	}
	if err := validateSpaceField("ValidateSpace.name", "name", args.Name, types.SPACE_NAME_MAX_LENGTH); err != nil {
		return err
	}
	if err := validateSpaceField("ValidateSpace.description", "description", args.Description, types.SPACE_DESCRIPTION_MAX_LENGTH); err != nil {
		return err
	}
	return validateSpaceField("ValidateSpace.prompt", "prompt", args.Prompt, types.SPACE_PROMPT_MAX_LENGTH)
}

func (l *SpaceLogic) CreateSpace(args types.UpdateSpaceArgs) (*types.Space, error) {
	if err := ValidateSpace(args); err != nil {
		return nil, err
	}

	space := types.Space{
		ID:          uuid.NewString(),
		UserID:      l.GetUserInfo().ID,
		Name:        strings.TrimSpace(args.Name),
		Description: strings.TrimSpace(args.Description),
		Prompt:      strings.TrimSpace(args.Prompt),
		CreatedAt:   time.Now(),
	}
	if err := l.core.Store().SpaceStore().Create(l.ctx, space); err != nil {
		return nil, errors.New("SpaceLogic.CreateSpace.SpaceStore.Create", i18n.ERROR_INTERNAL, err).Kind(errors.KindPersistence)
	}
	return &space, nil
}

func (l *SpaceLogic) UpdateSpace(id string, args types.UpdateSpaceArgs) error {
	if err := ValidateSpace(args); err != nil {
		return err
	}
	if _, err := l.GetSpace(id); err != nil {
		return errors.Trace("SpaceLogic.UpdateSpace", err)
	}

	args.Name = strings.TrimSpace(args.Name)
	args.Description = strings.TrimSpace(args.Description)
	args.Prompt = strings.TrimSpace(args.Prompt)
	if err := l.core.Store().SpaceStore().Update(l.ctx, l.GetUserInfo().ID, id, args); err != nil {
		return errors.New("SpaceLogic.UpdateSpace.SpaceStore.Update", i18n.ERROR_INTERNAL, err).Kind(errors.KindPersistence)
	}
	return nil
}

func (l *SpaceLogic) GetSpace(id string) (*types.Space, error) {
	space, err := l.core.Store().SpaceStore().GetSpace(l.ctx, l.GetUserInfo().ID, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("SpaceLogic.GetSpace.SpaceStore.GetSpace", i18n.ERROR_INTERNAL, err).Kind(errors.KindPersistence)
	}
	if space == nil {
		return nil, errors.New("SpaceLogic.GetSpace.nil", i18n.ERROR_NOT_FOUND, nil).Kind(errors.KindNotFound)
	}
	return space, nil
}

func (l *SpaceLogic) ListSpaces() ([]types.Space, error) {
	list, err := l.core.Store().SpaceStore().List(l.ctx, l.GetUserInfo().ID)
	if err != nil {
		return nil, errors.New("SpaceLogic.ListSpaces.SpaceStore.List", i18n.ERROR_INTERNAL, err).Kind(errors.KindPersistence)
	}
	return list, nil
}

func (l *SpaceLogic) ListSpaceFiles(id string) ([]types.UserFile, error) {
	list, err := l.core.Store().UserFileStore().ListSpaceFiles(l.ctx, id)
	if err != nil {
		return nil, errors.New("SpaceLogic.ListSpaceFiles.UserFileStore.ListSpaceFiles", i18n.ERROR_INTERNAL, err).Kind(errors.KindPersistence)
	}
	return list, nil
}

// SpaceController keeps the user's space list and the files of the active space,
// and hands the conversation over to the chat controller when the space changes.
type SpaceController struct {
	core *core.Core
	chat *ChatController

	mu     sync.Mutex
	spaces []types.Space
	files  []types.UserFile
}

func NewSpaceController(core *core.Core, chat *ChatController) *SpaceController {
	return &SpaceController{
		core: core,
		chat: chat,
	}
}

func (c *SpaceController) logic(ctx context.Context) *SpaceLogic {
	return NewSpaceLogic(c.chat.userCtx(ctx), c.core)
}

func (c *SpaceController) Spaces() []types.Space {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Space(nil), c.spaces...)
}

func (c *SpaceController) Files() []types.UserFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.UserFile(nil), c.files...)
}

// List reloads the spaces, newest first.
func (c *SpaceController) List(ctx context.Context) ([]types.Space, error) {
	list, err := c.logic(ctx).ListSpaces()
	if err != nil {
		return nil, errors.Trace("SpaceController.List", err)
	}
	c.mu.Lock()
	c.spaces = list
	c.mu.Unlock()
	return list, nil
}

// Create stores a new space and makes it the active one.
func (c *SpaceController) Create(ctx context.Context, args types.UpdateSpaceArgs) (*types.Space, error) {
	space, err := c.logic(ctx).CreateSpace(args)
	if err != nil {
		return nil, errors.Trace("SpaceController.Create", err)
	}
	c.mu.Lock()
	c.spaces = append([]types.Space{*space}, c.spaces...)
	c.mu.Unlock()

	if err = c.Select(ctx, space.ID); err != nil {
		return nil, errors.Trace("SpaceController.Create", err)
	}
	return space, nil
}

func (c *SpaceController) Update(ctx context.Context, id string, args types.UpdateSpaceArgs) error {
	if err := c.logic(ctx).UpdateSpace(id, args); err != nil {
		return errors.Trace("SpaceController.Update", err)
	}
	if _, err := c.List(ctx); err != nil {
		slog.Error("failed to reload spaces", slog.String("error", err.Error()))
	}
	return nil
}

// Select activates the space: the chat is left with no session and an empty log.
func (c *SpaceController) Select(ctx context.Context, id string) error {
	if _, err := c.logic(ctx).GetSpace(id); err != nil {
		return errors.Trace("SpaceController.Select", err)
	}
	if err := c.chat.EnterSpace(ctx, id); err != nil {
		return errors.Trace("SpaceController.Select", err)
	}
	if _, err := c.ListFiles(ctx); err != nil {
		slog.Error("failed to load space files", slog.String("space_id", id), slog.String("error", err.Error()))
	}
	return nil
}

func (c *SpaceController) activeSpace(trace string) (string, error) {
	id := c.chat.ActiveSpace()
	if id == "" {
		return "", errors.New(trace, i18n.ERROR_SPACE_NOT_SELECTED, nil).Kind(errors.KindInvalidArgument)
	}
	return id, nil
}

func (c *SpaceController) ListFiles(ctx context.Context) ([]types.UserFile, error) {
	id, err := c.activeSpace("SpaceController.ListFiles")
	if err != nil {
		return nil, err
	}
	list, err := c.logic(ctx).ListSpaceFiles(id)
	if err != nil {
		return nil, errors.Trace("SpaceController.ListFiles", err)
	}
	c.mu.Lock()
	c.files = list
	c.mu.Unlock()
	return list, nil
}

// UploadFiles uploads local documents to the active space one by one.
func (c *SpaceController) UploadFiles(ctx context.Context, paths []string) (UploadReport, error) {
	id, err := c.activeSpace("SpaceController.UploadFiles")
	if err != nil {
		return UploadReport{}, err
	}

	upload := NewUploadLogic(c.chat.userCtx(ctx), c.core)
	var (
		report  UploadReport
		sources []UploadSource
	)
	for _, p := range paths {
		src, err := LocalUploadSource(p)
		if err != nil {
			report.Failed = append(report.Failed, FileFailure{
				Name:    p,
				Message: c.core.Text(i18n.ERROR_FILE_READ_FAILED, map[string]interface{}{"Name": p}),
				Err:     err,
			})
			continue
		}
		sources = append(sources, src)
	}

	res := upload.UploadFiles(id, types.SpaceFileMimeTypes, sources)
	report.Uploaded = res.Uploaded
	report.Failed = append(report.Failed, res.Failed...)
	c.afterUpload(ctx, report)
	return report, nil
}

func (c *SpaceController) afterUpload(ctx context.Context, report UploadReport) {
	if len(report.Uploaded) == 0 {
		return
	}
	if _, err := c.ListFiles(ctx); err != nil {
		slog.Error("failed to reload space files", slog.String("error", err.Error()))
	}
	c.chat.appendNotice(types.ROLE_SYSTEM, c.core.Text(i18n.NOTICE_SPACE_FILE_UPLOADED, map[string]interface{}{"Count": len(report.Uploaded)}))
}

// DeleteFile removes a file from the active space. Unlike detaching a chat file,
// a failed delete is returned to the caller.
func (c *SpaceController) DeleteFile(ctx context.Context, fileID string) error {
	if _, err := c.activeSpace("SpaceController.DeleteFile"); err != nil {
		return err
	}
	if err := c.core.ChatAPI().DeleteFile(ctx, fileID, c.chat.GetUserInfo().ID); err != nil {
		return errors.New("SpaceController.DeleteFile.ChatAPI.DeleteFile", i18n.ERROR_FILE_DELETE_FAILED, err).Kind(errors.KindTransport)
	}
	if _, err := c.ListFiles(ctx); err != nil {
		slog.Error("failed to reload space files", slog.String("error", err.Error()))
	}
	c.chat.appendNotice(types.ROLE_SYSTEM, c.core.Text(i18n.NOTICE_SPACE_FILE_REMOVED, nil))
	return nil
}

// ImportFromDrive copies Drive files into the active space.
func (c *SpaceController) ImportFromDrive(ctx context.Context, drive DriveFiles, fileIDs []string) (UploadReport, error) {
	id, err := c.activeSpace("SpaceController.ImportFromDrive")
	if err != nil {
		return UploadReport{}, err
	}
	report := NewDriveImportLogic(c.chat.userCtx(ctx), c.core).Import(id, drive, fileIDs)
	c.afterUpload(ctx, report)
	return report, nil
}

// SelectTab switches the chat between threads and the active space.
func (c *SpaceController) SelectTab(ctx context.Context, tab types.ChatTab) error {
	return c.chat.SelectTab(ctx, tab)
}
