package store

import "github.com/techtribe/techtribe/internal/domain"

// DemoCatalogue returns the six starter packages shown on a fresh install.
func DemoCatalogue() []domain.CatalogueItem {
	return []domain.CatalogueItem{
		{
			Title:            "Biznes Veb Sayt",
			Description:      "Professional biznes veb saytı hazırlanması. Müasir dizayn, mobil uyğunluq, SEO optimallaşdırma və CMS idarəetmə paneli daxildir. Şirkətinizin onlayn imicini gücləndirin.",
			ShortDescription: "Şirkətiniz üçün professional və müasir veb sayt",
			Features:         []string{"Responsive dizayn", "SEO optimallaşdırma", "CMS paneli", "Əlaqə forması", "Xəritə inteqrasiyası", "Sosial media bağlantıları"},
			Technologies:     []string{"React", "Node.js", "MongoDB", "Tailwind CSS"},
			Price:            499,
			Images: []string{
				"https://images.unsplash.com/photo-1460925895917-afdab827c52f?w=800&q=80",
				"https://images.unsplash.com/photo-1551288049-bebda4e38f71?w=800&q=80",
			},
			DemoURL:    "https://demo.techtribe.az/biznes",
			Category:   "Biznes",
			IsFeatured: true,
			IsActive:   true,
		},
		{
			Title:            "E-Ticarət Platforması",
			Description:      "Tam funksional e-ticarət platforması. Məhsul idarəetməsi, ödəniş sistemi, sifariş izləmə, müştəri hesabları və analitika daxildir. Onlayn satışlarınızı artırın.",
			ShortDescription: "Güclü e-ticarət həlli ilə onlayn satışa başlayın",
			Features:         []string{"Məhsul kataloqu", "Ödəniş sistemi", "Sifariş izləmə", "Müştəri hesabları", "Analitika paneli", "Stok idarəetməsi"},
			Technologies:     []string{"Next.js", "Stripe", "PostgreSQL", "Redis"},
			Price:            999,
			Images: []string{
				"https://images.unsplash.com/photo-1556742049-0cfed4f6a45d?w=800&q=80",
				"https://images.unsplash.com/photo-1563013544-824ae1b704d3?w=800&q=80",
			},
			DemoURL:    "https://demo.techtribe.az/ecommerce",
			Category:   "E-Ticarət",
			IsFeatured: true,
			IsActive:   true,
		},
		{
			Title:            "Landing Səhifə",
			Description:      "Yüksək konversiya dərəcəli landing səhifə. A/B testləmə, analitika inteqrasiyası və CTA optimallaşdırması ilə müştərilərinizi cəlb edin.",
			ShortDescription: "Effektiv landing səhifə ilə müştəri cəlb edin",
			Features:         []string{"Yüksək konversiya dizayn", "A/B testləmə", "Analitika", "Forma inteqrasiyası", "Sürətli yüklənmə", "Animasiyalar"},
			Technologies:     []string{"React", "Framer Motion", "Tailwind CSS", "Vercel"},
			Price:            299,
			Images: []string{
				"https://images.unsplash.com/photo-1559136555-9303baea8ebd?w=800&q=80",
				"https://images.unsplash.com/photo-1432888498266-38ffec3eaf0a?w=800&q=80",
			},
			DemoURL:  "https://demo.techtribe.az/landing",
			Category: "Landing",
			IsActive: true,
		},
		{
			Title:            "Portfolio Saytı",
			Description:      "Yaradıcı portfolio veb saytı. İşlərinizi professional şəkildə nümayiş etdirin. Qalerya, blog, CV bölməsi və əlaqə forması ilə tam həll.",
			ShortDescription: "İşlərinizi dünyaya göstərin",
			Features:         []string{"İş nümunələri qalereyası", "Blog sistemi", "CV/Resume bölməsi", "Əlaqə forması", "Animasiyalı keçidlər", "Qaranlıq/İşıqlı tema"},
			Technologies:     []string{"Vue.js", "Nuxt", "Prisma", "Tailwind CSS"},
			Price:            399,
			Images: []string{
				"https://images.unsplash.com/photo-1507238691740-187a5b1d37b8?w=800&q=80",
				"https://images.unsplash.com/photo-1542744094-3a31f272c490?w=800&q=80",
			},
			DemoURL:    "https://demo.techtribe.az/portfolio",
			Category:   "Portfolio",
			IsFeatured: true,
			IsActive:   true,
		},
		{
			Title:            "Korporativ Həll",
			Description:      "Enterprise səviyyəli korporativ veb həll. Çoxdilli dəstək, təhlükəsizlik sertifikatı, API inteqrasiyaları və xüsusi funksionallıq ilə tam korporativ paket.",
			ShortDescription: "Böyük şirkətlər üçün enterprise həll",
			Features:         []string{"Çoxdilli dəstək", "API inteqrasiyaları", "Təhlükəsizlik", "Xüsusi CRM", "Hesabat sistemi", "7/24 Dəstək"},
			Technologies:     []string{"Next.js", "TypeScript", "AWS", "Docker", "Kubernetes"},
			Price:            799,
			Images: []string{
				"https://images.unsplash.com/photo-1497366216548-37526070297c?w=800&q=80",
				"https://images.unsplash.com/photo-1486406146926-c627a92ad1ab?w=800&q=80",
			},
			DemoURL:  "https://demo.techtribe.az/corporate",
			Category: "Korporativ",
			IsActive: true,
		},
		{
			Title:            "Startup Paketi",
			Description:      "Startaplar üçün xüsusi paket. MVP inkişafı, sürətli prototipləmə, istifadəçi analitikası və miqyaslana bilən arxitektura ilə startapınızı uğurla başladın.",
			ShortDescription: "Startapınızı sürətlə bazara çıxarın",
			Features:         []string{"MVP inkişafı", "Prototipləmə", "İstifadəçi analitikası", "Miqyaslana bilən", "CI/CD pipeline", "Bulud yerləşdirmə"},
			Technologies:     []string{"React", "FastAPI", "MongoDB", "Docker", "AWS"},
			Price:            599,
			Images: []string{
				"https://images.unsplash.com/photo-1519389950473-47ba0277781c?w=800&q=80",
				"https://images.unsplash.com/photo-1553877522-43269d4ea984?w=800&q=80",
			},
			DemoURL:    "https://demo.techtribe.az/startup",
			Category:   "Startup",
			IsFeatured: true,
			IsActive:   true,
		},
	}
}
