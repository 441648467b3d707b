package events

import (
	"context"
	"fmt"
	"time"

	"github.com/web3events/server/internal/domain/ids"
)

// NeedsSeeding reports whether the catalog is empty.
func (s *AdminService) NeedsSeeding(ctx context.Context) (bool, error) {
	counts, err := s.repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count events: %w", err)
	}
	return counts.Total == 0, nil
}

// SeedSampleEvents inserts the fixed sample catalog when the events table is
// empty and returns the number of events inserted. A non-empty catalog is
// left untouched.
func (s *AdminService) SeedSampleEvents(ctx context.Context) (int, error) {
	needed, err := s.NeedsSeeding(ctx)
	if err != nil {
		return 0, err
	}
	if !needed {
		return 0, nil
	}

	inserted := 0
	for _, sample := range SampleEvents() {
		id, err := ids.NewULID()
		if err != nil {
			return inserted, fmt.Errorf("mint event id: %w", err)
		}
		sample.ID = id
		if _, err := s.repo.Create(ctx, sample); err != nil {
			return inserted, fmt.Errorf("seed %q: %w", sample.Name, err)
		}
		inserted++
	}
	s.logger.Info().Int("inserted", inserted).Msg("seeded sample events")
	return inserted, nil
}

func str(s string) *string { return &s }

func date(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

// SampleEvents returns the fixed demo catalog: eight published conferences
// and hackathons used to bootstrap a fresh deployment.
func SampleEvents() []CreateParams {
	return []CreateParams{
		{
			Name:        "ETH Warsaw",
			Tagline:     "Building the Future of Ethereum in the Heart of Europe",
			Description: "Join us for the premier Ethereum event in Warsaw, bringing together developers, researchers, and enthusiasts to explore the latest in Web3 technology. Experience cutting-edge talks, hands-on workshops, and networking opportunities with the brightest minds in the Ethereum ecosystem.",
			StartDate:   date("2024-09-05T09:00:00Z"),
			EndDate:     date("2024-09-07T18:00:00Z"),
			Location:    Location{City: "Warsaw", Country: "Poland"},
			Kind:        Kind{Conference: true},
			LogoURL:     str("https://images.unsplash.com/photo-1618044733300-9472054094ee?w=400&h=300&fit=crop"),
			Socials:     []string{"https://twitter.com/ethwarsaw", "https://github.com/ethwarsaw", "https://discord.gg/ethwarsaw"},
			IsFeatured:  true,
			Status:      StatusPublished,
		},
		{
			Name:        "ETH Istanbul",
			Tagline:     "Bridging East and West: The Ethereum Community Gathering",
			Description: "Istanbul's largest Ethereum conference bringing together builders, investors, and innovators from across Europe, Asia, and the Middle East. Discover new protocols, participate in governance discussions, and connect with the global Ethereum community.",
			StartDate:   date("2024-09-12T08:00:00Z"),
			EndDate:     date("2024-09-14T20:00:00Z"),
			Location:    Location{City: "Istanbul", Country: "Turkey"},
			Kind:        Kind{Conference: true, Hackathon: true},
			LogoURL:     str("https://images.unsplash.com/photo-1541432901042-2d8bd64b4a9b?w=400&h=300&fit=crop"),
			Socials:     []string{"https://twitter.com/ethistanbul", "https://t.me/ethistanbul", "https://linkedin.com/company/ethistanbul"},
			IsFeatured:  true,
			Status:      StatusPublished,
		},
		{
			Name:        "ETH Safari",
			Tagline:     "Wild Adventures in Web3 - Kenya's Premier Ethereum Event",
			Description: "Experience the growing African Web3 ecosystem at ETH Safari. Join us in Kenya for an immersive experience featuring local builders, sustainable blockchain solutions, and the future of decentralized finance in emerging markets.",
			StartDate:   date("2024-09-20T10:00:00Z"),
			EndDate:     date("2024-09-22T19:00:00Z"),
			Location:    Location{City: "Nairobi", Country: "Kenya"},
			Kind:        Kind{Conference: true, Hackathon: true},
			LogoURL:     str("https://images.unsplash.com/photo-1516026672322-bc52d61a55d5?w=400&h=300&fit=crop"),
			Socials:     []string{"https://twitter.com/ethsafari", "https://instagram.com/ethsafari", "https://discord.gg/ethsafari"},
			Status:      StatusPublished,
		},
		{
			Name:        "ETH Tokyo",
			Tagline:     "東京で繋がる未来のブロックチェーン - Connecting Japan's Web3 Future",
			Description: "Tokyo's premier Ethereum conference showcasing Japan's unique approach to Web3 technology. Featuring presentations from leading Japanese blockchain companies, cultural workshops, and networking events in the heart of Tokyo.",
			StartDate:   date("2024-10-01T09:00:00Z"),
			EndDate:     date("2024-10-03T17:00:00Z"),
			Location:    Location{City: "Tokyo", Country: "Japan"},
			Kind:        Kind{Conference: true},
			LogoURL:     str("https://images.unsplash.com/photo-1540959733332-eab4deabeeaf?w=400&h=300&fit=crop"),
			Socials:     []string{"https://twitter.com/ethtokyo", "https://github.com/ethtokyo", "https://youtube.com/ethtokyo"},
			Status:      StatusPublished,
		},
		{
			Name:        "Ethereum Vienna",
			Tagline:     "Alpine Innovation: Web3 in the Austrian Capital",
			Description: "Join the Austrian Ethereum community for an elegant conference in Vienna. Experience the perfect blend of classical architecture and cutting-edge blockchain technology, with talks on DeFi protocols, NFT innovations, and sustainable Web3 solutions.",
			StartDate:   date("2024-10-10T09:30:00Z"),
			EndDate:     date("2024-10-12T16:00:00Z"),
			Location:    Location{City: "Vienna", Country: "Austria"},
			Kind:        Kind{Conference: true},
			LogoURL:     str("https://images.unsplash.com/photo-1516550893923-42d28e5677af?w=400&h=300&fit=crop"),
			Socials:     []string{"https://twitter.com/ethvienna", "https://linkedin.com/company/ethereum-vienna", "https://medium.com/@ethvienna"},
			Status:      StatusPublished,
		},
		{
			Name:        "DeFi London",
			Tagline:     "Revolutionizing Finance in the City of London",
			Description: "London's premier DeFi conference bringing together traditional finance and decentralized protocols. Learn from industry leaders, participate in governance discussions, and explore the future of financial infrastructure.",
			StartDate:   date("2024-10-15T08:00:00Z"),
			EndDate:     date("2024-10-17T18:00:00Z"),
			Location:    Location{City: "London", Country: "United Kingdom"},
			Kind:        Kind{Conference: true},
			LogoURL:     str("https://images.unsplash.com/photo-1513635269975-59663e0ac1ad?w=400&h=300&fit=crop"),
			Socials:     []string{"https://twitter.com/defilondon", "https://linkedin.com/company/defi-london", "https://discord.gg/defilondon"},
			IsFeatured:  true,
			Status:      StatusPublished,
		},
		{
			Name:        "Web3 Summit Berlin",
			Tagline:     "Decentralized Future: Building the Next Internet",
			Description: "Berlin's largest Web3 conference featuring the latest in decentralized technologies. Join developers, entrepreneurs, and thought leaders as they shape the future of the internet with blockchain, IPFS, and other Web3 protocols.",
			StartDate:   date("2024-11-01T09:00:00Z"),
			EndDate:     date("2024-11-03T19:00:00Z"),
			Location:    Location{City: "Berlin", Country: "Germany"},
			Kind:        Kind{Conference: true, Hackathon: true},
			LogoURL:     str("https://images.unsplash.com/photo-1587613757488-de7ba42ccd5f?w=400&h=300&fit=crop"),
			Socials:     []string{"https://twitter.com/web3berlin", "https://github.com/web3berlin", "https://telegram.me/web3berlin"},
			Status:      StatusPublished,
		},
		{
			Name:        "NFT NYC",
			Tagline:     "The Capital of Digital Art and Collectibles",
			Description: "New York's premier NFT conference celebrating digital art, collectibles, and the creator economy. Featuring exhibitions from top artists, marketplace showcases, and discussions on the future of digital ownership.",
			StartDate:   date("2024-11-10T10:00:00Z"),
			EndDate:     date("2024-11-12T20:00:00Z"),
			Location:    Location{City: "New York", Country: "United States"},
			Kind:        Kind{Conference: true},
			LogoURL:     str("https://images.unsplash.com/photo-1518709268805-4e9042af2176?w=400&h=300&fit=crop"),
			Socials:     []string{"https://twitter.com/nftnyc", "https://instagram.com/nftnyc", "https://discord.gg/nftnyc"},
			Status:      StatusPublished,
		},
	}
}
