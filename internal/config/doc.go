// Package config loads finsight configuration and the dataset alias table.
//
// # Configuration Sources
//
// Configuration is assembled in order of increasing precedence:
//
//	1. Default values (Default)
//	2. A YAML configuration file, when a path is given
//	3. Environment variables prefixed with FINSIGHT_
//
// # Environment Variables
//
//	FINSIGHT_DATA_ROOT=/srv/reports/data
//	FINSIGHT_DATA_ALIAS_FILE=/srv/reports/config/data_mapping.yaml
//	FINSIGHT_DATA_ENCODINGS=utf-8,gbk,gb2312
//	FINSIGHT_DATA_CACHE_CAPACITY=0
//	FINSIGHT_LOGGING_LEVEL=debug
//
// # Alias Table
//
// The alias table maps logical dataset names to files in the data root:
//
//	营业收入:
//	  actual_file: revenue_2019_2024.csv
//	  description: Monthly operating revenue
//
// It is read once by LoadAliasTable and never reloaded.
package config
