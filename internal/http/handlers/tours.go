package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"tourbook/internal/domain"
	"tourbook/internal/imaging"
	"tourbook/internal/repositories"
)

// TourHandler carries the tour endpoints beyond the generic CRUD set.
type TourHandler struct {
	Tours     repositories.TourRepo
	Resizer   imaging.Resizer
	UploadDir string
}

// AliasTopTours presets the query for GET /tours/top-5-cheap.
func AliasTopTours() gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Request.URL.Query()
		q.Set("limit", "5")
		q.Set("sort", "-ratingsAverage,price")
		q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
		c.Request.URL.RawQuery = q.Encode()
		c.Next()
	}
}

// GET /api/v1/tours/tour-stats
func (h TourHandler) Stats() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		stats, err := h.Tours.Stats(c.Request.Context())
		if err != nil {
			return err
		}
		ok(c, gin.H{"stats": stats})
		return nil
	})
}

// GET /api/v1/tours/monthly-plan/:year
func (h TourHandler) MonthlyPlan() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		year, err := strconv.Atoi(c.Param("year"))
		if err != nil || year < 1 {
			return domain.NewValidation("Invalid year: " + c.Param("year"))
		}
		plan, err := h.Tours.MonthlyPlan(c.Request.Context(), year)
		if err != nil {
			return err
		}
		ok(c, gin.H{"plan": plan})
		return nil
	})
}

// PATCH /api/v1/tours/:id/images
//
// Accepts one imageCover plus up to three gallery images. All resize
// sub-tasks run concurrently and the batch is all-or-nothing: any
// failure aborts the whole response.
func (h TourHandler) UploadImages() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		if _, err := h.Tours.FindByID(c.Request.Context(), id); err != nil {
			return err
		}

		form, err := c.MultipartForm()
		if err != nil {
			return domain.NewValidation("expected multipart form with images")
		}

		jobs := make([]imageJob, 0, 4)
		if covers := form.File["imageCover"]; len(covers) > 0 {
			jobs = append(jobs, imageJob{
				file: covers[0],
				name: fmt.Sprintf("tour-%d-%d-cover.jpeg", id, time.Now().Unix()),
				w:    2000, h: 1333, cover: true,
			})
		}
		for i, img := range form.File["images"] {
			if i >= 3 {
				break
			}
			jobs = append(jobs, imageJob{
				file: img,
				name: fmt.Sprintf("tour-%d-%d-%d.jpeg", id, time.Now().Unix(), i+1),
				w:    2000, h: 1333,
			})
		}
		if len(jobs) == 0 {
			return domain.NewValidation("no images provided")
		}

		cover, images, err := h.processAll(c, jobs)
		if err != nil {
			return err
		}
		if err := h.Tours.SetImages(c.Request.Context(), id, cover, images); err != nil {
			return err
		}
		ok(c, gin.H{"imageCover": cover, "images": images})
		return nil
	})
}

type imageJob struct {
	file  *multipart.FileHeader
	name  string
	w, h  int
	cover bool
}

// processAll fans the resize jobs out and joins on the first error.
func (h TourHandler) processAll(c *gin.Context, jobs []imageJob) (cover string, images []string, err error) {
	dir := filepath.Join(h.UploadDir, "tours")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, domain.NewInternal(err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, j := range jobs {
		wg.Add(1)
		go func(j imageJob) {
			defer wg.Done()
			if pErr := h.processOne(c, j, dir); pErr != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = pErr
				}
				mu.Unlock()
			}
		}(j)
	}
	wg.Wait()
	if firstErr != nil {
		return "", nil, firstErr
	}

	for _, j := range jobs {
		if j.cover {
			cover = j.name
		} else {
			images = append(images, j.name)
		}
	}
	return cover, images, nil
}

func (h TourHandler) processOne(c *gin.Context, j imageJob, dir string) error {
	src, err := j.file.Open()
	if err != nil {
		return domain.NewInternal(err)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return domain.NewInternal(err)
	}
	resized, err := h.Resizer.Resize(c.Request.Context(), data, j.w, j.h)
	if err != nil {
		return domain.NewInternal(fmt.Errorf("resize %s: %w", j.name, err))
	}
	if err := os.WriteFile(filepath.Join(dir, j.name), resized, 0o644); err != nil {
		return domain.NewInternal(err)
	}
	return nil
}
