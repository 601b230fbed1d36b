package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jeffgoval/massage/internal/auth"
	"github.com/jeffgoval/massage/internal/config"
	"github.com/jeffgoval/massage/internal/db"
	"github.com/jeffgoval/massage/internal/jsoncfg"
	"github.com/jeffgoval/massage/internal/models"
	"github.com/jeffgoval/massage/internal/pricing"
	"github.com/jeffgoval/massage/internal/tenants"
	"github.com/jeffgoval/massage/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type seedProfessional struct {
	Email     string
	Name      string
	Tagline   string
	Location  string
	BasePrice int
	Packages  []seedPackage
}

type seedPackage struct {
	Name            string
	Description     string
	DurationMinutes int
	PriceCents      int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, _, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := seedAdmin(ctx, cols, cfg.AdminEmail, cfg.AdminPassword, cfg.Timezone); err != nil {
			log.Fatalf("seed admin error: %v", err)
		}
	} else {
		log.Println("seed admin: ADMIN_EMAIL or ADMIN_PASSWORD missing, skipping")
	}

	professionals := []seedProfessional{
		{
			Email:     "juliana@example.com",
			Name:      "Juliana Costa",
			Tagline:   "Massagem relaxante e terapêutica",
			Location:  "São Paulo",
			BasePrice: 250,
			Packages: []seedPackage{
				{Name: "Relaxante 60min", Description: "Massagem relaxante de corpo inteiro.", DurationMinutes: 60, PriceCents: 25000},
				{Name: "Terapêutica 90min", Description: "Sessão terapêutica com foco em tensões.", DurationMinutes: 90, PriceCents: 35000},
			},
		},
		{
			Email:     "renata@example.com",
			Name:      "Renata Almeida",
			Tagline:   "Especialista em drenagem linfática",
			Location:  "Rio de Janeiro",
			BasePrice: 300,
			Packages: []seedPackage{
				{Name: "Drenagem 60min", Description: "Drenagem linfática modeladora.", DurationMinutes: 60, PriceCents: 28000},
			},
		},
	}

	seedPassword := os.Getenv("SEED_PASSWORD")
	if seedPassword == "" {
		seedPassword = "changeme123"
	}

	for _, pro := range professionals {
		if err := seedOne(ctx, cols, pro, seedPassword, cfg.Timezone); err != nil {
			log.Fatalf("seed error for %s: %v", pro.Email, err)
		}
	}

	log.Println("seed completed")
}

func seedAdmin(ctx context.Context, cols *db.Collections, email, password string, loc *time.Location) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().In(loc)
	update := bson.M{
		"$set": bson.M{
			"passwordHash": hash,
			"role":         models.RoleAdmin,
			"isActive":     true,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID().Hex(),
			"email":     email,
			"name":      "Admin",
			"createdAt": now,
		},
	}
	_, err = cols.Users.UpdateOne(ctx, bson.M{"email": email}, update, options.Update().SetUpsert(true))
	return err
}

// seedOne upserts one professional account with its profile, packages and
// pricing config, keyed so a rerun updates in place.
func seedOne(ctx context.Context, cols *db.Collections, pro seedProfessional, password string, loc *time.Location) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().In(loc)
	userID := utils.Slugify(pro.Name)

	_, err = cols.Users.UpdateOne(ctx, bson.M{"email": pro.Email}, bson.M{
		"$set": bson.M{
			"passwordHash": hash,
			"role":         models.RoleProfessional,
			"isActive":     true,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{
			"_id":       userID,
			"email":     pro.Email,
			"name":      pro.Name,
			"createdAt": now,
		},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return err
	}

	availability, err := jsoncfg.EncodeLimited(tenants.DefaultAvailability(), jsoncfg.MaxAvailabilityLen)
	if err != nil {
		return err
	}
	_, err = cols.Tenants.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{
			"displayName": pro.Name,
			"tagline":     pro.Tagline,
			"location":    pro.Location,
			"isActive":    true,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{
			"slug":         utils.Slugify(pro.Name),
			"availability": availability,
			"createdAt":    now,
		},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return err
	}

	for _, pkg := range pro.Packages {
		_, err = cols.Packages.UpdateOne(ctx, bson.M{"tenant_id": userID, "name": pkg.Name}, bson.M{
			"$set": bson.M{
				"description":     pkg.Description,
				"durationMinutes": pkg.DurationMinutes,
				"priceCents":      pkg.PriceCents,
				"isActive":        true,
				"updatedAt":       now,
			},
			"$setOnInsert": bson.M{
				"_id":       primitive.NewObjectID().Hex(),
				"createdAt": now,
			},
		}, options.Update().SetUpsert(true))
		if err != nil {
			return err
		}
	}

	periods, err := jsoncfg.EncodeLimited(pricing.Table{
		pricing.PeriodEvening: {Enabled: true, Modifier: 50},
	}, jsoncfg.MaxPricingLen)
	if err != nil {
		return err
	}
	weekdays, err := jsoncfg.EncodeLimited(pricing.Table{
		"saturday": {Enabled: true, Modifier: 30},
		"sunday":   {Enabled: true, Modifier: 30},
	}, jsoncfg.MaxPricingLen)
	if err != nil {
		return err
	}
	_, err = cols.PricingConfigs.UpdateOne(ctx, bson.M{"tenant_id": userID}, bson.M{
		"$set": bson.M{
			"basePrice": pro.BasePrice,
			"periods":   periods,
			"weekdays":  weekdays,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID().Hex(),
			"createdAt": now,
		},
	}, options.Update().SetUpsert(true))
	return err
}
