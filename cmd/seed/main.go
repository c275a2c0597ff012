// Package main seeds a LocalCircle database with a neighborhood of posts,
// likes and comments, and prints a token for exploring the API.
//
// Usage:
//
//	go run ./cmd/seed -data-path ~/LocalCircle/data -lat 40.7128 -lng -74.0060
//	go run ./cmd/seed -posts 200 -radius 8000 -as user-demo
//	go run ./cmd/seed -reindex
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/localcircle/localcircle-server/internal/auth"
	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/geo"
	"github.com/localcircle/localcircle-server/internal/location"
	"github.com/localcircle/localcircle-server/internal/search"
	"github.com/localcircle/localcircle-server/internal/service"
	"github.com/localcircle/localcircle-server/internal/store"
	"github.com/localcircle/localcircle-server/internal/validation"
)

var (
	dataPath = flag.String("data-path", "", "Base data path (default: $DATA_PATH or ~/LocalCircle/data)")
	lat      = flag.Float64("lat", 40.7128, "Neighborhood center latitude")
	lng      = flag.Float64("lng", -74.0060, "Neighborhood center longitude")
	radius   = flag.Float64("radius", 5000, "Scatter radius in meters")
	numPosts = flag.Int("posts", 60, "Posts to create")
	reindex  = flag.Bool("reindex", false, "Drop and rebuild the search index from the store, then exit")
	asUser   = flag.String("as", "user-demo", "User ID to mint a token for")
	tokenKey = flag.String("token-key", os.Getenv("TOKEN_KEY"), "Hex PASETO key (default: the data dir key)")
	issuer   = flag.String("token-issuer", "localcircle-identity", "Token issuer")
	audience = flag.String("token-audience", "localcircle-app", "Token audience")
)

// neighbors are the authors of seeded posts.
var neighbors = []domain.Actor{
	{UserID: "user-maya", Name: "Maya", Locality: "Riverside"},
	{UserID: "user-jonas", Name: "Jonas", Locality: "Old Town"},
	{UserID: "user-priya", Name: "Priya", Locality: "Hillcrest"},
	{UserID: "user-tom", Name: "Tom", Locality: "Riverside"},
	{UserID: "user-lena", Name: "Lena", Locality: "Market District"},
}

var titles = map[domain.Category][]string{
	domain.CategoryCoffee:   {"New espresso bar", "Best flat white", "Cold brew on tap", "Quiet cafe to work from"},
	domain.CategoryFood:     {"Taco truck is back", "Bakery opening", "Farmers market haul", "Late night ramen"},
	domain.CategoryServices: {"Reliable plumber", "Bike repair pop-up", "Tailor recommendation", "Free tax help"},
	domain.CategoryParks:    {"Dog park meetup", "Picnic on Saturday", "New benches by the pond", "Trail cleanup"},
	domain.CategorySafety:   {"Streetlight out", "Lost cat", "Road closed for repairs", "Watch for ice"},
}

var remarks = []string{"Thanks for sharing!", "Going there tomorrow.", "Is it open on Sundays?", "Love this.", "Same here."}

func main() {
	flag.Parse()

	base := *dataPath
	if base == "" {
		base = os.Getenv("DATA_PATH")
	}
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		base = filepath.Join(home, "LocalCircle", "data")
	}

	center := geo.Point{Lat: *lat, Lng: *lng}
	if !center.Valid() {
		log.Fatalf("Invalid center %v", center)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	fmt.Printf("Opening database at: %s\n", filepath.Join(base, "db"))
	st, err := store.New(filepath.Join(base, "db"), logger, store.NewNoopEmitter())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	index, err := search.NewSearchIndex(search.Options{DataPath: filepath.Join(base, "search"), Logger: logger})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()
	st.SetSearchIndexer(index)

	ctx := context.Background()

	if *reindex {
		if err := index.Rebuild(); err != nil {
			log.Fatalf("Failed to reset search index: %v", err)
		}
		count, err := index.Reindex(ctx, st.AllPosts(ctx))
		if err != nil {
			log.Fatalf("Reindex failed: %v", err)
		}
		fmt.Printf("Reindexed %d posts\n", count)
		return
	}

	posts := service.NewPostService(st, index, validation.New(), logger)
	ledger := service.NewLedgerService(st, logger)

	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))

	created := make([]*domain.Post, 0, *numPosts)
	for range *numPosts {
		author := neighbors[rng.IntN(len(neighbors))]
		category := domain.Categories[rng.IntN(len(domain.Categories))]
		title := titles[category][rng.IntN(len(titles[category]))]

		p, err := posts.Create(ctx, author, service.CreatePostInput{
			Title:    title,
			Body:     fmt.Sprintf("%s near %s. Posted by a neighbor.", title, author.Locality),
			Category: category,
		}, location.Fixed(scatter(rng, center, *radius)))
		if err != nil {
			log.Printf("Failed to create post: %v", err)
			continue
		}
		created = append(created, p)
	}
	fmt.Printf("Created %d posts within %.0fm of %.4f,%.4f\n", len(created), *radius, center.Lat, center.Lng)

	likes, comments := 0, 0
	for _, p := range created {
		for _, n := range neighbors {
			if rng.Float64() < 0.4 {
				if _, err := ledger.ToggleLike(ctx, n, p.ID); err == nil {
					likes++
				}
			}
		}
		if rng.Float64() < 0.3 {
			n := neighbors[rng.IntN(len(neighbors))]
			if _, err := ledger.AddComment(ctx, n, p.ID, remarks[rng.IntN(len(remarks))], ""); err == nil {
				comments++
			}
		}
	}
	fmt.Printf("Added %d likes and %d comments\n", likes, comments)

	keyHex, err := auth.ResolveKeyHex(*tokenKey, base)
	if err != nil {
		log.Fatalf("Failed to resolve token key: %v", err)
	}
	tokens, err := auth.NewTokenService(keyHex, *issuer, *audience)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}
	token, err := tokens.Mint(*asUser, "Demo", "Riverside", 24*time.Hour)
	if err != nil {
		log.Fatalf("Failed to mint token: %v", err)
	}

	fmt.Printf("\nToken for %s (24h):\n%s\n", *asUser, token)
	fmt.Printf("\ncurl -H 'Authorization: Bearer %s' 'http://localhost:8080/api/v1/feed?lat=%f&lng=%f'\n", token, center.Lat, center.Lng)
}

// scatter returns a uniformly distributed point within radiusMeters of center.
func scatter(rng *rand.Rand, center geo.Point, radiusMeters float64) geo.Point {
	d := radiusMeters * math.Sqrt(rng.Float64())
	bearing := rng.Float64() * 2 * math.Pi

	const metersPerDegree = 111320.0
	dLat := d * math.Cos(bearing) / metersPerDegree
	dLng := d * math.Sin(bearing) / (metersPerDegree * math.Cos(center.Lat*math.Pi/180))

	return geo.Point{Lat: center.Lat + dLat, Lng: center.Lng + dLng}
}
