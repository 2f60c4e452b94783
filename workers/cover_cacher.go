package workers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/cardboardbackend/attachments"
	"github.com/camden-git/cardboardbackend/models"
	"github.com/camden-git/cardboardbackend/repository"
)

const (
	downloadTimeout = 15 * time.Second
	cacherUserAgent = "Cardboard/1.0 (board game collection manager)"
)

type coverJob struct {
	GameID   int64
	ImageURL string
}

// CoverCacher downloads remote cover images in the background and rewrites
// the owning game to point at the local copy. Everything here is best effort:
// a failed download is logged and the game keeps its remote URL.
type CoverCacher struct {
	JobQueue         chan coverJob
	GameRepo         repository.GameRepositoryInterface
	Store            *attachments.Store
	ThumbnailMaxSize int
	HTTPClient       *http.Client
	Wg               sync.WaitGroup
	StopChan         chan struct{}
	Pending          map[int64]bool
	Mutex            sync.Mutex
}

func NewCoverCacher(gameRepo repository.GameRepositoryInterface, store *attachments.Store, thumbnailMaxSize, queueSize, numWorkers int) *CoverCacher {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	cc := &CoverCacher{
		JobQueue:         make(chan coverJob, queueSize),
		GameRepo:         gameRepo,
		Store:            store,
		ThumbnailMaxSize: thumbnailMaxSize,
		HTTPClient:       &http.Client{Timeout: downloadTimeout},
		StopChan:         make(chan struct{}),
		Pending:          make(map[int64]bool),
	}
	cc.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go cc.worker(i)
	}
	log.Printf("Started %d cover cacher worker(s) with queue size %d", numWorkers, queueSize)
	return cc
}

func (cc *CoverCacher) worker(id int) {
	defer cc.Wg.Done()

	log.Printf("Cover cacher worker %d started", id)
	for {
		select {
		case job, ok := <-cc.JobQueue:
			if !ok {
				log.Printf("Cover cacher worker %d stopping: Job queue closed", id)
				return
			}
			cc.processJob(id, job)
			cc.Mutex.Lock()
			delete(cc.Pending, job.GameID)
			cc.Mutex.Unlock()

		case <-cc.StopChan:
			log.Printf("Cover cacher worker %d stopping: Stop signal received", id)
			return
		}
	}
}

// Enqueue queues a cover download unless one is already pending for the game.
// Local references and empty URLs are ignored; a full queue drops the job
// with a warning rather than blocking the caller.
func (cc *CoverCacher) Enqueue(gameID int64, imageURL string) {
	if imageURL == "" || models.IsLocalRef(imageURL) {
		return
	}

	cc.Mutex.Lock()
	if cc.Pending[gameID] {
		cc.Mutex.Unlock()
		return
	}
	cc.Pending[gameID] = true
	cc.Mutex.Unlock()

	select {
	case cc.JobQueue <- coverJob{GameID: gameID, ImageURL: imageURL}:
		log.Printf("Queued cover download for game %d", gameID)
	default:
		log.Printf("WARNING: Cover cacher queue full. Failed to queue download for game %d", gameID)
		cc.Mutex.Lock()
		delete(cc.Pending, gameID)
		cc.Mutex.Unlock()
	}
}

func (cc *CoverCacher) processJob(id int, job coverJob) {
	parsed, err := url.Parse(job.ImageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		log.Printf("Worker %d: skipping cover for game %d: unsupported URL %q", id, job.GameID, job.ImageURL)
		return
	}

	// the game may have been edited or deleted since the job was queued
	game, err := cc.GameRepo.GetByID(job.GameID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Worker %d: ERROR loading game %d: %v", id, job.GameID, err)
		}
		return
	}
	if game.ImageURL == nil || *game.ImageURL != job.ImageURL {
		log.Printf("Worker %d: cover for game %d changed while queued, skipping", id, job.GameID)
		return
	}

	path, err := cc.download(job)
	if err != nil {
		log.Printf("Worker %d: ERROR caching cover for game %d: %v", id, job.GameID, err)
		return
	}

	// re-check before claiming the cover; an edit may have raced the download
	game, err = cc.GameRepo.GetByID(job.GameID)
	if err != nil || game.ImageURL == nil || *game.ImageURL != job.ImageURL {
		log.Printf("Worker %d: cover for game %d changed during download, discarding", id, job.GameID)
		cc.Store.Delete(path)
		return
	}

	ref := models.CoverRef(job.GameID)
	if err := cc.GameRepo.SetImageRef(job.GameID, &ref, true); err != nil {
		log.Printf("Worker %d: ERROR recording cached cover for game %d: %v", id, job.GameID, err)
		cc.Store.Delete(path)
		return
	}
	log.Printf("Worker %d: Cached cover for game %d", id, job.GameID)

	cc.generateThumbnail(id, job.GameID, path)
}

// download fetches the cover to its place in the image store and returns the
// written path
func (cc *CoverCacher) download(job coverJob) (string, error) {
	req, err := http.NewRequest(http.MethodGet, job.ImageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", cacherUserAgent)

	resp, err := cc.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > attachments.MaxImageSize {
		return "", fmt.Errorf("download of %d bytes exceeds %d byte limit", resp.ContentLength, attachments.MaxImageSize)
	}

	ext := attachments.ExtensionForDownload(resp.Header.Get("Content-Type"), job.ImageURL)
	path := cc.Store.CoverPath(job.GameID, ext)

	cc.Store.RemoveCoverFiles(job.GameID)

	// cap the stream as well; Content-Length is not always set
	limited := io.LimitReader(resp.Body, attachments.MaxImageSize+1)
	if err := cc.Store.Save(path, limited); err != nil {
		return "", err
	}
	if info, err := os.Stat(path); err == nil && info.Size() > attachments.MaxImageSize {
		cc.Store.Delete(path)
		return "", fmt.Errorf("download exceeds %d byte limit", attachments.MaxImageSize)
	}
	return path, nil
}

func (cc *CoverCacher) generateThumbnail(id int, gameID int64, coverPath string) {
	if _, err := cc.Store.GenerateThumbnail(gameID, coverPath, cc.ThumbnailMaxSize); err != nil {
		log.Printf("Worker %d: thumbnail for game %d skipped: %v", id, gameID, err)
		return
	}
	ref := models.ThumbnailRef(gameID)
	if err := cc.GameRepo.SetThumbnailRef(gameID, &ref); err != nil {
		log.Printf("Worker %d: ERROR recording thumbnail for game %d: %v", id, gameID, err)
	}
}

func (cc *CoverCacher) Stop() {
	log.Println("Stopping cover cacher workers...")
	close(cc.StopChan)
	cc.Wg.Wait()
	log.Println("All cover cacher workers stopped")
}
