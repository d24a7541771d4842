// Package corpus holds the curated travel documents the service indexes at startup.
package corpus

import (
	"strings"

	"travel-rag/internal/domain"
)

var documents = []domain.Document{
	{
		ID:    "visa_india_japan_001",
		Title: "Japan Tourist Visa Requirements for Indian Citizens",
		Body: `Indian citizens require a tourist visa to visit Japan for tourism purposes. There is no visa-on-arrival facility for Indian passport holders.

Required documents: a passport valid for at least 6 months from the date of travel, a completed application form with a recent 4.5cm x 4.5cm photograph, round-trip flight booking, hotel reservations for the whole stay, bank statements for the last 3-6 months, an employment letter or business registration, income tax returns for 2-3 years and a cover letter explaining the visit.

Processing takes 5-7 business days. The visa is usually valid for 3 months with stays of 15, 30 or 90 days. Apply through VFS Global or the Japanese Embassy/Consulate. Travel insurance is highly recommended and funds of about 50,000-75,000 INR per person should be shown.`,
		Category:      domain.CategoryVisaRequirements,
		Country:       "Japan",
		SourceCountry: "India",
		Tags:          []string{"tourist_visa", "documents", "processing_time", "requirements"},
		Source:        "Japanese Embassy India Official Website",
		LastUpdated:   "2024-11-01",
		Reliability:   0.95,
	},
	{
		ID:    "visa_india_usa_001",
		Title: "USA Tourist Visa (B1/B2) Requirements for Indian Citizens",
		Body: `Indian citizens need a B1/B2 visa for tourism and business visits to the United States. ESTA is not available for Indian passport holders.

Required documents: a passport valid 6 months beyond the stay, the DS-160 confirmation page, the appointment letter, a 2x2 inch photograph, proof of finances, employment letter and salary slips, and any previous visas.

An interview at the US Embassy or Consulate is mandatory. Processing averages 3-5 weeks and the fee is $185. The visa is typically valid for 10 years with multiple entries and stays of up to 180 days per visit. A visa does not guarantee entry; the immigration officer has the final say.`,
		Category:      domain.CategoryVisaRequirements,
		Country:       "USA",
		SourceCountry: "India",
		Tags:          []string{"B1_B2_visa", "interview", "documents", "fee"},
		Source:        "US Embassy India",
		LastUpdated:   "2024-10-15",
		Reliability:   0.98,
	},
	{
		ID:    "visa_india_uk_001",
		Title: "UK Standard Visitor Visa Requirements for Indians",
		Body: `Indian nationals require a Standard Visitor visa to visit the UK for tourism, business or visiting family and friends.

Required documents: a current passport with a blank page, old passports, the online application, bank statements for 6 months, salary slips or business documents, income tax returns, bookings and an invitation letter when visiting someone.

Biometrics are taken at a visa application centre. Standard processing takes 3 weeks with priority options available. The 6-month visa costs £115; 2, 5 and 10 year visas are also offered.`,
		Category:      domain.CategoryVisaRequirements,
		Country:       "UK",
		SourceCountry: "India",
		Tags:          []string{"standard_visitor", "biometrics", "processing", "fee"},
		Source:        "UK Government Official Website",
		LastUpdated:   "2024-10-20",
		Reliability:   0.96,
	},
	{
		ID:    "visa_india_schengen_001",
		Title: "Schengen Visa Requirements for Indian Citizens",
		Body: `Indian passport holders need a Schengen visa to visit the 27 European countries of the Schengen Area.

Required documents: a passport valid 3 months beyond the stay and issued within 10 years, the signed application form, two photographs, travel health insurance with at least €30,000 cover, flight and hotel bookings, bank statements, employment proof, income tax returns and a day-by-day itinerary.

Processing takes about 15 calendar days and can extend to 30-45. The fee is €80. The visa allows 90 days within a 180-day period. Apply at the embassy of the main destination between 6 months and 15 days before travel. Multiple entry visas depend on travel history.`,
		Category:      domain.CategoryVisaRequirements,
		Country:       "Schengen Area",
		SourceCountry: "India",
		Tags:          []string{"schengen", "europe", "travel_insurance", "multiple_entry"},
		Source:        "Schengen Visa Official Information",
		LastUpdated:   "2024-11-05",
		Reliability:   0.97,
	},
	{
		ID:    "visa_india_uae_001",
		Title: "UAE/Dubai Tourist Visa for Indian Citizens",
		Body: `Indian citizens can obtain a visa-on-arrival or an e-visa for visiting the UAE and Dubai.

Visa on arrival is only for Indian passport holders with a valid US visa or Green Card, or UK/EU residence. Others apply for a 30 or 60 day tourist e-visa through the official UAE portal or an airline; processing takes 3-5 working days and costs AED 300-650.

Required documents: a passport valid 6 months, return ticket, hotel booking, proof of funds and a photograph. Travel insurance is recommended but not mandatory.`,
		Category:      domain.CategoryVisaRequirements,
		Country:       "UAE",
		SourceCountry: "India",
		Tags:          []string{"visa_on_arrival", "e_visa", "dubai", "requirements"},
		Source:        "UAE Government Portal",
		LastUpdated:   "2024-10-25",
		Reliability:   0.94,
	},
	{
		ID:    "laws_japan_001",
		Title: "Important Laws and Regulations in Japan for Tourists",
		Body: `Japan has zero tolerance for drugs. Even small amounts lead to arrest and deportation, and some over-the-counter medicines containing pseudoephedrine are illegal. Carry a doctor's letter for prescription medication. Cannabis and CBD products are banned.

The legal drinking age is 20 and drunk driving is zero tolerance. Smoke only in designated areas. Tattoos may restrict entry to onsen, gyms and pools. Always carry your passport. Jaywalking, littering and defacing property are fined. Overstaying a visa leads to detention and deportation with a 5-10 year re-entry ban.

Emergency numbers: police 110, ambulance and fire 119.`,
		Category:    domain.CategoryLocalLaws,
		Country:     "Japan",
		Tags:        []string{"laws", "drugs", "alcohol", "public_behavior", "penalties"},
		Source:      "Japan National Tourism Organization",
		LastUpdated: "2024-09-15",
		Reliability: 0.96,
	},
	{
		ID:    "laws_uae_001",
		Title: "UAE/Dubai Laws and Regulations for Tourists",
		Body: `The UAE enforces strict drug laws, including traces in the bloodstream and some prescription medicines that need prior approval.

Alcohol may only be consumed in licensed venues and private residences; public drunkenness is an offence. Dress modestly in malls, government buildings and religious sites. Public displays of affection, swearing and rude gestures can lead to fines or arrest.

During Ramadan, eating, drinking and smoking in public during daylight hours is prohibited. Photographing people without consent and government buildings is illegal.`,
		Category:    domain.CategoryLocalLaws,
		Country:     "UAE",
		Tags:        []string{"laws", "dress_code", "alcohol", "ramadan", "public_behavior"},
		Source:      "UAE Government Legal Portal",
		LastUpdated: "2024-10-10",
		Reliability: 0.97,
	},
	{
		ID:    "culture_japan_001",
		Title: "Japanese Cultural Etiquette and Customs",
		Body: `Bowing is the customary greeting in Japan. Remove shoes when entering homes, temples and some restaurants, and use the provided slippers.

Tipping is not practised and can cause offence. Do not stick chopsticks upright in rice or pass food chopstick to chopstick. Queue in line and keep quiet on trains.

At an onsen, wash thoroughly before entering the bath, keep towels out of the water and bathe without swimwear. Punctuality and respect for personal space are valued.`,
		Category:    domain.CategoryCulturalEtiquette,
		Country:     "Japan",
		Tags:        []string{"culture", "etiquette", "manners", "customs", "onsen"},
		Source:      "Japan National Tourism Organization",
		LastUpdated: "2024-09-01",
		Reliability: 0.95,
	},
	{
		ID:    "culture_uae_001",
		Title: "UAE Cultural Etiquette and Islamic Customs",
		Body: `Islam shapes daily life in the UAE. Greet with a handshake only if one is offered, and wait for women to extend their hand first. Use the right hand for eating and passing items.

Dress conservatively, covering shoulders and knees in public. Women should cover their hair when visiting mosques.

During Ramadan, respect fasting hours and greet people with "Ramadan Kareem". Friday is the holy day and many businesses keep shorter hours.`,
		Category:    domain.CategoryCulturalEtiquette,
		Country:     "UAE",
		Tags:        []string{"culture", "islam", "etiquette", "ramadan", "customs"},
		Source:      "UAE Tourism Authority",
		LastUpdated: "2024-10-05",
		Reliability: 0.96,
	},
	{
		ID:    "safety_japan_001",
		Title: "Safety Guidelines and Emergency Information for Japan",
		Body: `Japan is one of the safest countries for travellers, with low crime rates. Stay alert in nightlife districts where overcharging in bars has been reported.

Earthquakes are common. Learn the evacuation route of your hotel, and during shaking take cover under a sturdy table. Install an alert app such as Safety Tips from the Japan Tourism Agency. Typhoon season runs from June to October.

Tap water is safe to drink. Healthcare is excellent but expensive, so travel insurance is recommended. Dial 110 for police and 119 for ambulance or fire.`,
		Category:    domain.CategorySafetyGuidelines,
		Country:     "Japan",
		Tags:        []string{"safety", "emergency", "earthquake", "health", "disasters"},
		Source:      "Japan Tourism Agency & Travel Safety",
		LastUpdated: "2024-09-20",
		Reliability: 0.97,
	},
	{
		ID:    "visa_to_india_usa_001",
		Title: "India e-Visa and Tourist Visa Requirements for US Citizens",
		Body: `US citizens need a visa to visit India for tourism, business or medical purposes. The e-Visa is the simplest option.

Apply online on the official Indian visa portal at least 4 days before arrival. e-Tourist visas are offered for 30 days, 1 year and 5 years. Upload a passport scan with 6 months validity and a recent photograph, then pay the fee online.

The Electronic Travel Authorization is presented on arrival at designated airports and seaports. Regular paper visas are processed through the Indian Embassy's outsourcing partner.`,
		Category:      domain.CategoryVisaRequirements,
		Country:       "India",
		SourceCountry: "USA",
		Tags:          []string{"e_visa", "tourist_visa", "online_application", "requirements"},
		Source:        "Indian Ministry of External Affairs",
		LastUpdated:   "2024-11-15",
		Reliability:   0.98,
	},
	{
		ID:    "visa_to_india_uk_001",
		Title: "India e-Visa Requirements for UK Citizens",
		Body: `UK citizens require a visa to travel to India. The e-Visa is the most convenient option.

Apply online at least 4 days before travel. Provide a passport valid for 6 months with two blank pages, a digital photograph and a passport bio page scan. e-Tourist visas are available for 30 days, 1 year and 5 years.

Print the approved Electronic Travel Authorization and present it at immigration. Biometrics are collected on arrival.`,
		Category:      domain.CategoryVisaRequirements,
		Country:       "India",
		SourceCountry: "UK",
		Tags:          []string{"e_visa", "uk_citizens", "tourist_visa", "online"},
		Source:        "Indian High Commission UK",
		LastUpdated:   "2024-11-10",
		Reliability:   0.97,
	},
	{
		ID:    "laws_india_001",
		Title: "Important Laws and Regulations in India for Tourists",
		Body: `Drug possession in India carries heavy penalties under the NDPS Act, including long prison sentences. Alcohol laws vary by state; Gujarat and Bihar are dry states and the legal drinking age ranges from 18 to 25.

Foreigners staying beyond 180 days must register with the FRRO. Satellite phones are banned without a licence. Carry your passport and visa at all times.

Customs limits apply to currency and gold. Exporting antiques older than 100 years is prohibited. Photography is restricted at airports, military sites and some temples.`,
		Category:    domain.CategoryLocalLaws,
		Country:     "India",
		Tags:        []string{"laws", "regulations", "drugs", "alcohol", "visa", "customs"},
		Source:      "Indian Government Legal Information",
		LastUpdated: "2024-10-28",
		Reliability: 0.96,
	},
	{
		ID:    "culture_india_001",
		Title: "Indian Cultural Etiquette and Customs for Visitors",
		Body: `Greet people with "Namaste", palms pressed together. Use the right hand for eating and giving or receiving items.

Remove shoes before entering homes and temples, and dress modestly at religious sites, covering shoulders and knees. Some temples restrict entry to non-Hindus or ask visitors to cover their heads.

Public displays of affection are frowned upon. Cows are sacred to Hindus and beef is avoided in many regions. Bargaining is normal in markets but not in fixed-price shops.`,
		Category:    domain.CategoryCulturalEtiquette,
		Country:     "India",
		Tags:        []string{"culture", "etiquette", "customs", "religion", "social_norms"},
		Source:      "India Tourism & Cultural Studies",
		LastUpdated: "2024-11-01",
		Reliability: 0.98,
	},
	{
		ID:    "safety_india_001",
		Title: "Safety Guidelines and Travel Tips for India",
		Body: `Drink bottled or filtered water and eat freshly cooked food to avoid stomach illness. Consult a doctor about vaccinations for hepatitis A, typhoid and other diseases before travelling.

Use registered taxis or ride-hailing apps and agree fares in advance. Beware of common scams involving fake tour agents and gem sellers. Women travellers should dress conservatively and avoid isolated areas at night.

The national emergency number is 112. Monsoon season from June to September can cause flooding and travel delays.`,
		Category:    domain.CategorySafetyGuidelines,
		Country:     "India",
		Source:      "India Tourism & Travel Safety Resources",
		LastUpdated: "2024-11-20",
		Reliability: 0.97,
	},
}

// All returns a copy of every curated document in pending status.
func All() []domain.Document {
	out := make([]domain.Document, len(documents))
	for i, d := range documents {
		out[i] = clone(d)
	}
	return out
}

// ByID returns the document with the given id.
func ByID(id string) (domain.Document, bool) {
	for _, d := range documents {
		if d.ID == id {
			return clone(d), true
		}
	}
	return domain.Document{}, false
}

// ByIDs returns the documents whose ids are listed, in corpus order.
// Unknown ids are ignored.
func ByIDs(ids []string) []domain.Document {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.Document
	for _, d := range documents {
		if want[d.ID] {
			out = append(out, clone(d))
		}
	}
	return out
}

// ByCountry returns documents about a destination, compared case-insensitively.
func ByCountry(country string) []domain.Document {
	var out []domain.Document
	for _, d := range documents {
		if strings.EqualFold(d.Country, country) {
			out = append(out, clone(d))
		}
	}
	return out
}

// ByCategory returns documents in one category.
func ByCategory(category domain.Category) []domain.Document {
	var out []domain.Document
	for _, d := range documents {
		if d.Category == category {
			out = append(out, clone(d))
		}
	}
	return out
}

func clone(d domain.Document) domain.Document {
	d.Tags = append([]string(nil), d.Tags...)
	d.Status = domain.StatusPending
	return d
}

// Resolve returns the whole corpus for an empty id list and ByIDs otherwise.
func Resolve(ids []string) []domain.Document {
	if len(ids) == 0 {
		return All()
	}
	return ByIDs(ids)
}
