package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/manpuku-dev/gift-catalog/internal/models"
	"github.com/manpuku-dev/gift-catalog/internal/services"
)

// UploadCSV replaces the whole catalog from an uploaded CSV file. A
// multipart body streams the file through the ingester; a JSON body drives
// the chunked three-phase protocol instead.
// POST /api/admin/upload-csv
func (h *Handler) UploadCSV(c *fiber.Ctx) error {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return h.uploadMultipart(c)
	}
	return h.uploadChunked(c)
}

func (h *Handler) uploadMultipart(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "CSVファイルが見つかりません。")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "CSVファイルを開けませんでした。")
	}
	defer file.Close()

	res, err := h.ingester.Replace(c.Context(), file, fileHeader.Filename)
	if err != nil {
		return h.uploadError(c, err)
	}

	return Success(c,
		fmt.Sprintf("%d件のデータを正常にアップロードしました。", res.Accepted),
		models.UploadResponse{RecordCount: res.Accepted})
}

func (h *Handler) uploadChunked(c *fiber.Ctx) error {
	var req models.ChunkedUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	switch {
	case req.Init:
		if err := h.ingester.InitReplace(c.Context()); err != nil {
			return h.uploadError(c, err)
		}
		return Success(c, "既存データを削除しました。", nil)

	case len(req.Records) > 0:
		inserted, err := h.ingester.InsertChunk(c.Context(), req.Records)
		if err != nil {
			return h.uploadError(c, err)
		}
		return Success(c,
			fmt.Sprintf("%d件のデータを登録しました。", inserted),
			models.UploadResponse{RecordCount: inserted})

	case req.Final:
		if err := h.ingester.Finalize(c.Context(), req.Filename, req.TotalCount); err != nil {
			return h.uploadError(c, err)
		}
		return Success(c,
			fmt.Sprintf("%d件のデータを正常にアップロードしました。", req.TotalCount),
			models.UploadResponse{RecordCount: req.TotalCount})

	default:
		return Error(c, fiber.StatusBadRequest, "init, records, or final is required")
	}
}

// ImportFromStorage ingests a CSV object already sitting in the configured
// bucket, the same replace-all path as a direct upload.
// POST /api/admin/import-from-storage
func (h *Handler) ImportFromStorage(c *fiber.Ctx) error {
	if h.storage == nil {
		return Error(c, fiber.StatusServiceUnavailable, "storage is not configured")
	}

	var req models.StorageImportRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "object is required")
	}

	obj, err := h.storage.Download(c.Context(), req.Object)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, fmt.Sprintf("ファイルを取得できませんでした: %v", err))
	}
	defer obj.Close()

	res, err := h.ingester.Replace(c.Context(), obj, req.Object)
	if err != nil {
		return h.uploadError(c, err)
	}

	return Success(c,
		fmt.Sprintf("%d件のデータを正常にアップロードしました。", res.Accepted),
		models.UploadResponse{RecordCount: res.Accepted})
}

// uploadError maps ingestion failures onto the response taxonomy: store
// failures are server errors, parse failures and empty files are client
// errors. The message always reaches the operator; partial effects are
// visible in the absence of a completed history entry.
func (h *Handler) uploadError(c *fiber.Ctx, err error) error {
	var storeErr *services.StoreError
	var parseErr *services.ParseError

	switch {
	case errors.Is(err, services.ErrNoValidData):
		return Error(c, fiber.StatusBadRequest, "有効なデータが見つかりませんでした。")
	case errors.As(err, &parseErr):
		return Error(c, fiber.StatusBadRequest, fmt.Sprintf("CSVパースエラー: %v", parseErr))
	case errors.As(err, &storeErr):
		if storeErr.Op == "delete" {
			return Error(c, fiber.StatusInternalServerError, "既存データの削除に失敗しました。")
		}
		return Error(c, fiber.StatusInternalServerError, "データの登録に失敗しました。")
	default:
		return Error(c, fiber.StatusInternalServerError, "サーバーエラーが発生しました。")
	}
}
