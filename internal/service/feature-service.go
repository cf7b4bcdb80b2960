package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bigdady147/Eddy-Hub/internal/apperror"
	"github.com/bigdady147/Eddy-Hub/internal/models"
	"github.com/bigdady147/Eddy-Hub/internal/repository"
)

type FeatureService struct {
	features FeatureStore
}

func NewFeatureService(features FeatureStore) *FeatureService {
	return &FeatureService{features: features}
}

func (fs *FeatureService) CreateFeature(ctx context.Context, req *models.CreateFeatureRequest) (*models.Feature, error) {
	feature := &models.Feature{
		Key:         req.Key,
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		IsActive:    true,
	}

	created, err := fs.features.New(ctx, feature)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperror.DuplicateKey(fmt.Sprintf("feature key %q already exists", req.Key))
		}
		return nil, fmt.Errorf("error creating feature: %w", err)
	}
	return created, nil
}

func (fs *FeatureService) GetActiveFeatures(ctx context.Context) ([]*models.Feature, error) {
	return fs.features.FindActive(ctx)
}

func (fs *FeatureService) GetFeatureByKey(ctx context.Context, key string) (*models.Feature, error) {
	feature, err := fs.features.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if feature == nil {
		return nil, apperror.NotFound(fmt.Sprintf("feature %q not found", key))
	}
	return feature, nil
}

// Seed inserts the default catalog, skipping keys that already exist. Safe
// to run on every start.
func (fs *FeatureService) Seed(ctx context.Context) error {
	for _, feature := range defaultFeatures() {
		existing, err := fs.features.FindByKey(ctx, feature.Key)
		if err != nil {
			return fmt.Errorf("error checking feature %s: %w", feature.Key, err)
		}
		if existing != nil {
			continue
		}
		if _, err := fs.features.New(ctx, feature); err != nil {
			// A concurrent starter may have seeded the same key between the
			// check and the insert.
			if errors.Is(err, repository.ErrDuplicateKey) {
				continue
			}
			return fmt.Errorf("error seeding feature %s: %w", feature.Key, err)
		}
		log.Printf("Seeded feature: %s", feature.Key)
	}
	return nil
}

func defaultFeatures() []*models.Feature {
	return []*models.Feature{
		{
			Key:         "expense_manager",
			Name:        models.LocalizedText{Vi: "Quản lý chi tiêu", En: "Expense Manager"},
			Description: models.LocalizedText{Vi: "Theo dõi thu chi cá nhân, giao dịch, qua và trực quan.", En: "Track personal income and expenses with visual insights."},
			Icon:        "💰",
			IsActive:    true,
		},
		{
			Key:         "address_converter",
			Name:        models.LocalizedText{Vi: "Address Converter", En: "Address Converter"},
			Description: models.LocalizedText{Vi: "Chuyển đổi các địa chỉ từ và sang địa chỉ dạng khác.", En: "Convert addresses between different formats."},
			Icon:        "📍",
			IsActive:    true,
		},
		{
			Key:         "word_to_pdf",
			Name:        models.LocalizedText{Vi: "File converter (Word to PDF)", En: "File converter (Word to PDF)"},
			Description: models.LocalizedText{Vi: "Chuyển đổi file văn bản docx sang định dạng PDF chất lượng cao.", En: "Convert Word documents to high-quality PDF format."},
			Icon:        "📄",
			IsActive:    true,
		},
		{
			Key:         "pdf_to_word",
			Name:        models.LocalizedText{Vi: "File converter (PDF to Word)", En: "File converter (PDF to Word)"},
			Description: models.LocalizedText{Vi: "Chuyển đổi file PDF sang định dạng Word để dễ dàng chỉnh sửa.", En: "Convert PDF files to editable Word format."},
			Icon:        "📝",
			IsActive:    true,
		},
		{
			Key:         "keyboard_tester",
			Name:        models.LocalizedText{Vi: "Keyboard tester", En: "Keyboard tester"},
			Description: models.LocalizedText{Vi: "Kiểm tra độ nhạy và tính năng của các phím trên bàn phím của bạn.", En: "Test keyboard responsiveness and key functionality."},
			Icon:        "⌨️",
			IsActive:    true,
		},
		{
			Key:         "controller_tester",
			Name:        models.LocalizedText{Vi: "Controller tester", En: "Controller tester"},
			Description: models.LocalizedText{Vi: "Kiểm tra tay cầm chơi game (Gamepad/Controller) trực tuyến.", En: "Test game controllers and gamepads online."},
			Icon:        "🎮",
			IsActive:    true,
		},
		{
			Key:         "json_parse",
			Name:        models.LocalizedText{Vi: "JSON Parse", En: "JSON Parse"},
			Description: models.LocalizedText{Vi: "Định dạng và phân tích cú pháp JSON giúp lập trình viên dễ đọc code.", En: "Format and parse JSON for better code readability."},
			Icon:        "🔧",
			IsActive:    true,
		},
	}
}
