package crypto

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"rfid-admin-service/internal/config"
	"rfid-admin-service/internal/util"
)

// LoadMasterKey resolves the cipher master key from configuration.
//
// Development: CRYPTO_MASTER_KEY holds the 256-bit key hex-encoded.
// Production: CRYPTO_WRAPPED_KEY holds the key wrapped by AWS KMS; it is
// unwrapped exactly once at startup so every later Encrypt/Decrypt stays an
// in-process operation.
func LoadMasterKey(ctx context.Context, cfg config.CryptoConfig) ([]byte, error) {
	if cfg.KMSEnabled {
		return unwrapWithKMS(ctx, cfg)
	}

	if cfg.MasterKeyHex == "" {
		return nil, fmt.Errorf("%w: CRYPTO_MASTER_KEY is not set", ErrInvalidKey)
	}

	key, err := hex.DecodeString(cfg.MasterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: CRYPTO_MASTER_KEY is not valid hex", ErrInvalidKey)
	}

	return key, nil
}

func unwrapWithKMS(ctx context.Context, cfg config.CryptoConfig) ([]byte, error) {
	wrapped, err := base64.StdEncoding.DecodeString(cfg.WrappedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: CRYPTO_WRAPPED_KEY is not valid base64", ErrInvalidKey)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.KMSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := kms.NewFromConfig(awsCfg)
	out, err := client.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: wrapped})
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap master key: %w", err)
	}

	util.Info("Cipher master key unwrapped via KMS",
		util.String("region", cfg.KMSRegion),
	)

	return out.Plaintext, nil
}
