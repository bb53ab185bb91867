package analysis

import "strings"

// MockCSV returns a small stand-in CSV for a dataset name, chosen by keyword.
// It backs imports when the catalog download path is unavailable.
func MockCSV(datasetName string) string {
	name := strings.ToLower(datasetName)
	switch {
	case strings.Contains(name, "music") || strings.Contains(name, "genre"):
		return `genre,tempo,loudness,energy,danceability
rock,120,-5.2,0.8,0.6
pop,128,-3.1,0.9,0.8
jazz,100,-8.5,0.6,0.4
classical,90,-12.0,0.3,0.2
electronic,140,-2.5,0.95,0.9
`
	case strings.Contains(name, "house") || strings.Contains(name, "price"):
		return `price,bedrooms,bathrooms,sqft,age
500000,3,2,1800,10
750000,4,3,2500,5
300000,2,1,1200,25
900000,5,4,3200,2
650000,3,2.5,2000,8
`
	case strings.Contains(name, "image") || strings.Contains(name, "classification"):
		return `filename,label,width,height,channels
img001.jpg,cat,224,224,3
img002.jpg,dog,224,224,3
img003.jpg,bird,224,224,3
img004.jpg,car,224,224,3
img005.jpg,flower,224,224,3
`
	default:
		return `feature1,feature2,feature3,target
1.2,3.4,5.6,A
2.3,4.5,6.7,B
3.4,5.6,7.8,A
4.5,6.7,8.9,C
5.6,7.8,9.0,B
`
	}
}
