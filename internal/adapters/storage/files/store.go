package files

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	// Decoders registrados para image.Decode.
	_ "image/png"

	"pet-records/internal/domain/events"
	"pet-records/internal/domain/pets"
	"pet-records/internal/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	ThumbnailSize    = 256
	thumbnailQuality = 80
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store guarda fotos de fichas y adjuntos de eventos en disco. Las referencias
// devueltas son rutas URL bajo BaseURL (p.ej. /media/pets/<id>/<file>).
type Store struct {
	root    string
	baseURL string
	log     logger.Logger
}

var (
	_ pets.PhotoStore        = (*Store)(nil)
	_ events.AttachmentStore = (*Store)(nil)
)

func New(root, baseURL string, log logger.Logger) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("files: empty root dir")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("files: create root: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	if baseURL == "" {
		baseURL = "/media"
	}
	return &Store{root: root, baseURL: strings.TrimRight(baseURL, "/"), log: log}, nil
}

// Root es el directorio servido como archivos estáticos.
func (s *Store) Root() string { return s.root }

// Save escribe la foto original y una miniatura JPEG de 256px de ancho máximo.
func (s *Store) Save(ctx context.Context, petID string, up pets.PhotoUpload) (string, error) {
	dir := path.Join("pets", sanitize(petID))
	base := uuid.NewString()
	name := base + extOf(up.Filename)

	if err := s.write(dir, name, up.Data); err != nil {
		return "", err
	}
	if err := s.writeThumbnail(dir, base+"_thumb.jpg", up.Data); err != nil {
		// La foto ya quedó guardada; la miniatura es accesoria.
		s.log.Warn("thumbnail failed", map[string]any{"pet_id": petID, "error": err})
	}
	return s.url(dir, name), nil
}

// SaveAttachment guarda un adjunto de evento como <evento>_<i>_<nombre>.
func (s *Store) SaveAttachment(ctx context.Context, eventID string, index int, up events.FileUpload) (string, error) {
	dir := "events"
	name := fmt.Sprintf("%s_%d_%s", sanitize(eventID), index, sanitize(filepath.Base(up.Filename)))
	if err := s.write(dir, name, up.Data); err != nil {
		return "", err
	}
	return s.url(dir, name), nil
}

// Remove borra un archivo guardado a partir de su referencia. Para fotos
// también borra la miniatura. Referencias fuera de BaseURL se ignoran.
func (s *Store) Remove(ctx context.Context, ref string) error {
	rel, ok := strings.CutPrefix(ref, s.baseURL+"/")
	if !ok {
		return nil
	}
	rel = path.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return nil
	}

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("files: remove: %w", err)
	}
	if strings.HasPrefix(rel, "pets/") {
		thumb := strings.TrimSuffix(full, filepath.Ext(full)) + "_thumb.jpg"
		if err := os.Remove(thumb); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("files: remove thumbnail: %w", err)
		}
	}
	return nil
}

func (s *Store) write(dir, name string, data []byte) error {
	full := filepath.Join(s.root, filepath.FromSlash(dir))
	if err := os.MkdirAll(full, 0o755); err != nil {
		return fmt.Errorf("files: mkdir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(full, name), data, 0o644); err != nil {
		return fmt.Errorf("files: write: %w", err)
	}
	return nil
}

func (s *Store) writeThumbnail(dir, name string, data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > pets.MaxPhotoPixels {
		return fmt.Errorf("image too large: %dx%d", cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Thumbnail(src, ThumbnailSize), &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return s.write(dir, name, buf.Bytes())
}

// Thumbnail escala la imagen para que su lado mayor mida como máximo max px.
// Imágenes más chicas se devuelven sin escalar.
func Thumbnail(src image.Image, max int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return src
	}

	nw, nh := max, max
	if w > h {
		nh = h * max / w
	} else {
		nw = w * max / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func (s *Store) url(dir, name string) string {
	return s.baseURL + "/" + path.Join(dir, name)
}

func sanitize(v string) string {
	v = unsafeChars.ReplaceAllString(strings.TrimSpace(v), "_")
	if v == "" || v == "." || v == ".." {
		return "file"
	}
	return v
}

func extOf(filename string) string {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".jpg", ".jpeg", ".png":
		return ext
	}
	return ".bin"
}
