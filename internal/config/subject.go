package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/ginjaninja78/avisos/internal/errors"
	"github.com/ginjaninja78/avisos/internal/sanitize"
	"github.com/ginjaninja78/avisos/internal/types"
)

// subjectFile is the on-disk layout of the subject profile. Keys follow the
// regulator's vocabulary.
type subjectFile struct {
	TaxID      string `yaml:"rfc"`
	LegalName  string `yaml:"denominacion_razon"`
	ObligorKey string `yaml:"clave_sujeto_obligado"`
}

// LoadSubjectProfile reads the obligated subject's profile.
//
// RETURNS:
//   - A dependency error (SUBJECT_NOT_FOUND) if the file does not exist or
//     carries no tax id.
//   - A configuration error if the file cannot be parsed.
func LoadSubjectProfile(path string) (types.SubjectProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.SubjectProfile{}, apperrors.Wrap(apperrors.ErrCodeSubjectNotFound,
				fmt.Sprintf("subject profile %s not found", path), err)
		}
		return types.SubjectProfile{}, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, "failed to read subject profile", err)
	}

	var raw subjectFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return types.SubjectProfile{}, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, "failed to parse subject profile", err)
	}

	if sanitize.SanitizeTaxID(raw.TaxID) == "" {
		return types.SubjectProfile{}, apperrors.Newf(apperrors.ErrCodeSubjectNotFound,
			"subject profile %s has no rfc", path)
	}

	return types.SubjectProfile{
		TaxID:      raw.TaxID,
		LegalName:  raw.LegalName,
		ObligorKey: raw.ObligorKey,
	}, nil
}
